package service

import (
	"sort"
	"strings"

	"propertychat/internal/model"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const minComparable = 2

// Comparison is a side-by-side table of selected properties
type Comparison struct {
	Properties []model.Property `json:"properties"`
	Rows       []ComparisonRow  `json:"rows"`
	Amenities  []AmenityRow     `json:"amenities"`
}

// ComparisonRow is one attribute across every compared property
type ComparisonRow struct {
	Label     string   `json:"label"`
	Values    []string `json:"values"`
	Highlight bool     `json:"highlight,omitempty"`
}

// AmenityRow marks which compared properties offer an amenity
type AmenityRow struct {
	Amenity string `json:"amenity"`
	Has     []bool `json:"has"`
}

var printer = message.NewPrinter(language.English)

// BuildComparison lays out properties side by side. It reports false when
// fewer than two properties are given.
func BuildComparison(props []model.Property) (Comparison, bool) {
	if len(props) < minComparable {
		return Comparison{}, false
	}

	cmp := Comparison{Properties: append([]model.Property{}, props...)}

	price := ComparisonRow{Label: "Price", Highlight: true}
	location := ComparisonRow{Label: "Location"}
	bedrooms := ComparisonRow{Label: "Bedrooms"}
	bathrooms := ComparisonRow{Label: "Bathrooms"}
	size := ComparisonRow{Label: "Size"}

	for _, p := range props {
		price.Values = append(price.Values, printer.Sprintf("$%.0f", p.Price))
		location.Values = append(location.Values, orDash(p.Location))
		bedrooms.Values = append(bedrooms.Values, intOrDash(p.Bedrooms))
		bathrooms.Values = append(bathrooms.Values, intOrDash(p.Bathrooms))
		if area := p.Area(); area != nil {
			size.Values = append(size.Values, printer.Sprintf("%.0f sqft", *area))
		} else {
			size.Values = append(size.Values, "-")
		}
	}
	cmp.Rows = []ComparisonRow{price, location, bedrooms, bathrooms, size}

	// union of amenities, case-insensitive, first spelling wins
	names := map[string]string{}
	for _, p := range props {
		for _, a := range p.Amenities {
			a = strings.TrimSpace(a)
			key := strings.ToLower(a)
			if a == "" {
				continue
			}
			if _, ok := names[key]; !ok {
				names[key] = a
			}
		}
	}
	keys := make([]string, 0, len(names))
	for key := range names {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	cmp.Amenities = make([]AmenityRow, 0, len(keys))
	for _, key := range keys {
		row := AmenityRow{Amenity: names[key], Has: make([]bool, len(props))}
		for i, p := range props {
			for _, a := range p.Amenities {
				if strings.EqualFold(strings.TrimSpace(a), key) {
					row.Has[i] = true
					break
				}
			}
		}
		cmp.Amenities = append(cmp.Amenities, row)
	}

	return cmp, true
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func intOrDash(v *int) string {
	if v == nil {
		return "-"
	}
	return printer.Sprintf("%d", *v)
}
