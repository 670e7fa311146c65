// Package emissivity maps land cover to thermal band emissivities, the
// surface term of the split-window equation.
package emissivity

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/gocarina/gocsv"
)

//go:embed average_emissivity.csv
var legendCSV []byte

// Class holds the emissivity behaviour of one land-cover legend entry.
// TIRS10 and TIRS11 are class-average emissivities; the endmember and
// cavity columns only matter when a vegetation fraction refines them.
type Class struct {
	Code      int     `csv:"code"`
	Name      string  `csv:"class"`
	TIRS10    float64 `csv:"tirs10"`
	TIRS11    float64 `csv:"tirs11"`
	Vegetated bool    `csv:"vegetated"`
	NDVIMin   float64 `csv:"ndvi_min"`
	NDVIMax   float64 `csv:"ndvi_max"`
	Soil10    float64 `csv:"soil10"`
	Soil11    float64 `csv:"soil11"`
	Veg10     float64 `csv:"veg10"`
	Veg11     float64 `csv:"veg11"`
	Cavity    float64 `csv:"cavity"`
}

// UnknownClassError reports a land-cover code or name that is not in
// the legend.
type UnknownClassError struct {
	Code int
	Name string
}

func (e *UnknownClassError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("land-cover class %q is not in the legend", e.Name)
	}
	return fmt.Sprintf("land-cover code %d is not in the legend", e.Code)
}

type Legend struct {
	classes []Class
	byCode  map[int]int
	byName  map[string]int
}

// LoadLegend parses the built-in ten-class land-cover legend.
func LoadLegend() (*Legend, error) {
	var classes []Class
	if err := gocsv.UnmarshalBytes(legendCSV, &classes); err != nil {
		return nil, fmt.Errorf("parsing emissivity legend: %w", err)
	}
	legend := &Legend{
		classes: classes,
		byCode:  make(map[int]int, len(classes)),
		byName:  make(map[string]int, len(classes)),
	}
	for i, class := range classes {
		legend.byCode[class.Code] = i
		legend.byName[canonicalName(class.Name)] = i
	}
	return legend, nil
}

// canonicalName makes lookups tolerant of the usual spellings, so
// "snow_and_ice" finds "Snow and Ice".
func canonicalName(name string) string {
	lowered := strings.ReplaceAll(strings.ToLower(name), "_", " ")
	return strings.Join(strings.Fields(lowered), " ")
}

func (l *Legend) ByCode(code int) (Class, error) {
	i, ok := l.byCode[code]
	if !ok {
		return Class{}, &UnknownClassError{Code: code}
	}
	return l.classes[i], nil
}

func (l *Legend) ByName(name string) (Class, error) {
	i, ok := l.byName[canonicalName(name)]
	if !ok {
		return Class{}, &UnknownClassError{Name: name}
	}
	return l.classes[i], nil
}

// Classes returns the legend in file order.
func (l *Legend) Classes() []Class {
	return l.classes
}
