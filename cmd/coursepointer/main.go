package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mshroyer/coursepointer/pkg"
	"github.com/mshroyer/coursepointer/pkg/converter"
	"github.com/mshroyer/coursepointer/pkg/course"
	"github.com/mshroyer/coursepointer/pkg/fit"
	"github.com/mshroyer/coursepointer/pkg/logger"
	"github.com/mshroyer/coursepointer/pkg/util"
)

var (
	outputPath = flag.String("o", "", "output FIT file path (default: input path with a .fit extension)")
	threshold  = flag.Float64("threshold", pkg.DefaultThresholdMeter, "waypoint interception threshold in meters")
	speed      = flag.Float64("speed", pkg.DefaultSpeedKmh, "assumed average speed in km/h, sets record timestamps")
	strategy   = flag.String("strategy", "nearest", "duplicate intercept strategy: nearest, first, or all")
	name       = flag.String("name", "", "course name (default: the name declared by the input)")
	sport      = flag.String("sport", "cycling", "course sport, snake_case per the Garmin profile")
	startTime  = flag.String("start", "", "course start time, RFC 3339 (default: now)")
	force      = flag.Bool("force", false, "overwrite the output file if it exists")
	bigEndian  = flag.Bool("big-endian", false, "encode data frames big endian")
	configPath = flag.String("config", "", "config file path (default: ./coursepointer.yaml if present)")
	quiet      = flag.Bool("quiet", false, "suppress the conversion report")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] input.gpx[.bz2]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	inputPath := flag.Arg(0)

	log, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	opts, err := buildOptions()
	if err != nil {
		fail(err)
	}

	output := *outputPath
	if output == "" {
		output = defaultOutputPath(inputPath)
	}

	info, err := converter.NewConverter(log).ConvertFile(inputPath, output, opts)
	if err != nil {
		fail(err)
	}

	if !*quiet {
		fmt.Printf("Wrote %s\n", output)
		fmt.Printf("  course:        %s\n", info.CourseName)
		fmt.Printf("  distance:      %.2f km\n", info.TotalDistanceMeter/pkg.MetersPerKilometer)
		fmt.Printf("  records:       %d\n", info.NumRecords)
		fmt.Printf("  course points: %d of %d waypoints\n", info.NumCoursePoints, info.NumWaypoints)
	}
}

// buildOptions merges config file values and flags into converter options.
// Flags win over the config file, which wins over the defaults.
func buildOptions() (converter.Options, error) {
	opts := converter.DefaultOptions()

	v, err := util.ReadConfig(*configPath)
	if err != nil {
		return opts, err
	}
	if v.IsSet("threshold") {
		opts.ThresholdMeter = v.GetFloat64("threshold")
	}
	if v.IsSet("speed") {
		opts.SpeedKmh = v.GetFloat64("speed")
	}
	strategyName := *strategy
	if !isFlagSet("strategy") && v.IsSet("strategy") {
		strategyName = v.GetString("strategy")
	}
	sportName := *sport
	if !isFlagSet("sport") && v.IsSet("sport") {
		sportName = v.GetString("sport")
	}
	if isFlagSet("threshold") {
		opts.ThresholdMeter = *threshold
	}
	if isFlagSet("speed") {
		opts.SpeedKmh = *speed
	}

	opts.Strategy, err = course.ParseStrategy(strategyName)
	if err != nil {
		return opts, err
	}
	opts.Sport, err = fit.ParseSport(sportName)
	if err != nil {
		return opts, err
	}
	opts.Name = *name
	opts.Force = *force
	opts.BigEndian = *bigEndian

	if *startTime != "" {
		t, err := time.Parse(time.RFC3339, *startTime)
		if err != nil {
			return opts, util.WrapErrorf(err, util.ErrEncodingCourse,
				"parsing start time %q", *startTime)
		}
		opts.StartTime = t
	}
	return opts, nil
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func defaultOutputPath(inputPath string) string {
	base := inputPath
	for _, suffix := range []string{".bz2", ".gpx"} {
		if n := len(base) - len(suffix); n > 0 && base[n:] == suffix {
			base = base[:n]
		}
	}
	return base + ".fit"
}

// fail prints the failing stage and exits. Configuration mistakes exit with
// status 2, everything else with 1.
func fail(err error) {
	fmt.Fprintf(os.Stderr, "coursepointer: %v\n", err)

	for _, code := range []error{util.ErrNegativeThreshold, util.ErrSpeedTooLow, util.ErrBadStrategy} {
		if errors.Is(err, code) {
			os.Exit(2)
		}
	}
	os.Exit(1)
}
