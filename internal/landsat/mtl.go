package landsat

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ParseMTL reads the metadata file shipped next to a Landsat Collection
// product. Group markers are skipped and values are returned verbatim,
// keyed by their metadata name.
func ParseMTL(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening metadata: %w", err)
	}
	defer file.Close()

	values := map[string]string{}
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == "END" {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "GROUP" || key == "END_GROUP" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), `"`)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading metadata: %w", err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s holds no metadata entries", path)
	}
	return values, nil
}

// ThermalCalibrations extracts the rescaling factors and thermal
// constants of the two TIRS bands from parsed metadata.
func ThermalCalibrations(values map[string]string) (Calibration, Calibration, error) {
	band10, err := calibrationFor(values, 10)
	if err != nil {
		return Calibration{}, Calibration{}, err
	}
	band11, err := calibrationFor(values, 11)
	if err != nil {
		return Calibration{}, Calibration{}, err
	}
	return band10, band11, nil
}

func calibrationFor(values map[string]string, band int) (Calibration, error) {
	cal := Calibration{}
	fields := []struct {
		key string
		dst *float64
	}{
		{fmt.Sprintf("RADIANCE_MULT_BAND_%d", band), &cal.Mult},
		{fmt.Sprintf("RADIANCE_ADD_BAND_%d", band), &cal.Add},
		{fmt.Sprintf("K1_CONSTANT_BAND_%d", band), &cal.K1},
		{fmt.Sprintf("K2_CONSTANT_BAND_%d", band), &cal.K2},
	}
	for _, field := range fields {
		raw, ok := values[field.key]
		if !ok {
			return Calibration{}, fmt.Errorf("metadata is missing %s", field.key)
		}
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Calibration{}, fmt.Errorf("metadata %s: %w", field.key, err)
		}
		*field.dst = parsed
	}
	return cal, nil
}
