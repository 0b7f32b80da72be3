package marker

import (
	"fmt"
	"sort"
	"strings"

	"gocv.io/x/gocv"
)

// DefaultDictionary is the original ArUco library dictionary.
const DefaultDictionary = "original"

type dictionary struct {
	code gocv.ArucoDictionaryCode
	size int // number of marker ids
}

var dictionaries = map[string]dictionary{
	"4x4_50":         {gocv.ArucoDict4x4_50, 50},
	"4x4_100":        {gocv.ArucoDict4x4_100, 100},
	"4x4_250":        {gocv.ArucoDict4x4_250, 250},
	"4x4_1000":       {gocv.ArucoDict4x4_1000, 1000},
	"5x5_50":         {gocv.ArucoDict5x5_50, 50},
	"5x5_100":        {gocv.ArucoDict5x5_100, 100},
	"5x5_250":        {gocv.ArucoDict5x5_250, 250},
	"5x5_1000":       {gocv.ArucoDict5x5_1000, 1000},
	"6x6_50":         {gocv.ArucoDict6x6_50, 50},
	"6x6_100":        {gocv.ArucoDict6x6_100, 100},
	"6x6_250":        {gocv.ArucoDict6x6_250, 250},
	"6x6_1000":       {gocv.ArucoDict6x6_1000, 1000},
	"7x7_50":         {gocv.ArucoDict7x7_50, 50},
	"7x7_100":        {gocv.ArucoDict7x7_100, 100},
	"7x7_250":        {gocv.ArucoDict7x7_250, 250},
	"7x7_1000":       {gocv.ArucoDict7x7_1000, 1000},
	"original":       {gocv.ArucoDictArucoOriginal, 1024},
	"apriltag_16h5":  {gocv.ArucoDictAprilTag_16h5, 30},
	"apriltag_25h9":  {gocv.ArucoDictAprilTag_25h9, 35},
	"apriltag_36h10": {gocv.ArucoDictAprilTag_36h10, 2320},
	"apriltag_36h11": {gocv.ArucoDictAprilTag_36h11, 587},
}

// LookupDictionary maps a dictionary name (case-insensitive) to its code.
func LookupDictionary(name string) (gocv.ArucoDictionaryCode, error) {
	d, err := lookup(name)
	return d.code, err
}

// DictionarySize returns how many marker ids the named dictionary holds.
func DictionarySize(name string) (int, error) {
	d, err := lookup(name)
	return d.size, err
}

func lookup(name string) (dictionary, error) {
	d, ok := dictionaries[strings.ToLower(name)]
	if !ok {
		return dictionary{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownDictionary, name, strings.Join(DictionaryNames(), ", "))
	}
	return d, nil
}

// DictionaryNames returns the sorted list of accepted dictionary names.
func DictionaryNames() []string {
	names := make([]string, 0, len(dictionaries))
	for n := range dictionaries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
