package main

import (
	"github.com/spf13/cobra"

	"github.com/adsarch/greylit/internal/geo"
)

func init() {
	rootCmd.AddCommand(coordsCmd)
}

var coordsCmd = &cobra.Command{
	Use:   "coords <point>",
	Short: "Parse a lat/long point and check it against Wales",
	Long: `Parse a lat/long point as found in geomLlOut and check it against Wales.

Usage:
  greylit coords "POINT(-3.0811629, 52.7621706)"
  greylit coords "52.76 -3.08"`,
	Args: cobra.ExactArgs(1),
	RunE: runCoords,
}

// CoordsResult is the response for the coords command.
type CoordsResult struct {
	Input   string  `json:"input"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Lon     float64 `json:"lon"`
	Lat     float64 `json:"lat"`
	Swapped bool    `json:"swapped"`
	InWales bool    `json:"in_wales"`
}

func runCoords(cmd *cobra.Command, args []string) error {
	p, err := geo.ParsePoint(args[0])
	if err != nil {
		exitWithErr(err, "parsing point")
	}
	lon, lat, swapped := geo.LonLat(p)
	res := CoordsResult{
		Input:   args[0],
		X:       p.X,
		Y:       p.Y,
		Lon:     lon,
		Lat:     lat,
		Swapped: swapped,
		InWales: geo.InWales(geo.Point{X: lon, Y: lat}),
	}

	if humanOutput {
		outputHuman("lon %g, lat %g\n", res.Lon, res.Lat)
		if res.Swapped {
			outputHuman("axes were swapped\n")
		}
		if !res.InWales {
			outputHuman("outside Wales\n")
		}
		return nil
	}
	return outputJSON(res)
}
