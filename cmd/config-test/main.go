package main

import (
	"flag"
	"fmt"
	"os"
	"reflect"

	"github.com/chrissnell/purpleaqi/internal/engine"
	"github.com/chrissnell/purpleaqi/pkg/config"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite configuration file (optional, compared against the YAML file)")
	)
	flag.Parse()

	if *yamlFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml> [-sqlite <config.db>]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("Configuration Test")
	fmt.Println("==================")

	fmt.Printf("Loading YAML configuration: %s\n", *yamlFile)
	yamlConfig, err := config.NewYAMLProvider(*yamlFile).LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading YAML config: %v\n", err)
		os.Exit(1)
	}

	ok := validateSensors(yamlConfig.Sensors)

	if *sqliteFile != "" {
		fmt.Printf("\nLoading SQLite configuration: %s\n", *sqliteFile)
		sqliteProvider, err := config.NewSQLiteProvider(*sqliteFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating SQLite provider: %v\n", err)
			os.Exit(1)
		}
		sqliteConfig, err := sqliteProvider.LoadConfig()
		sqliteProvider.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading SQLite config: %v\n", err)
			os.Exit(1)
		}

		if !compare(yamlConfig, sqliteConfig) {
			ok = false
		}
	}

	if !ok {
		os.Exit(1)
	}
	fmt.Println("\nAll checks passed")
}

// validateSensors runs every sensor through the same checks used at startup
func validateSensors(sensors []config.SensorData) bool {
	fmt.Println("\nSensors:")
	ok := true
	for _, s := range sensors {
		if err := s.Validate(); err != nil {
			fmt.Printf("✗ %v\n", err)
			ok = false
			continue
		}
		cfg, err := engine.NewConfig(s.Calibration, s.StatsKey, s.IncludePM10, s.TemperatureOffsetF, s.HumidityOffset)
		if err != nil {
			fmt.Printf("✗ Sensor %s: %v\n", s.Name, err)
			ok = false
			continue
		}
		fmt.Printf("✓ Sensor %s (calibration %s, stats key %s, poll every %v)\n",
			s.Name, cfg.Scheme, cfg.StatKey, s.PollDuration())
	}
	return ok
}

func compare(yamlConfig, sqliteConfig *config.ConfigData) bool {
	fmt.Println("\nComparison Results:")
	ok := true

	fmt.Printf("Sensors - YAML: %d, SQLite: %d\n", len(yamlConfig.Sensors), len(sqliteConfig.Sensors))
	sqliteSensors := make(map[string]config.SensorData)
	for _, s := range sqliteConfig.Sensors {
		sqliteSensors[s.Name] = s
	}
	for _, y := range yamlConfig.Sensors {
		s, found := sqliteSensors[y.Name]
		switch {
		case !found:
			fmt.Printf("✗ Sensor %s missing from SQLite\n", y.Name)
			ok = false
		case y != s:
			fmt.Printf("✗ Sensor %s differs\n  YAML:   %+v\n  SQLite: %+v\n", y.Name, y, s)
			ok = false
		default:
			fmt.Printf("✓ Sensor %s matches\n", y.Name)
		}
	}
	if len(yamlConfig.Sensors) != len(sqliteConfig.Sensors) {
		ok = false
	}

	if reflect.DeepEqual(yamlConfig.Storage, sqliteConfig.Storage) {
		fmt.Println("✓ Storage configuration matches")
	} else {
		fmt.Println("✗ Storage configuration differs")
		ok = false
	}

	if (len(yamlConfig.Controllers) == 0 && len(sqliteConfig.Controllers) == 0) ||
		reflect.DeepEqual(yamlConfig.Controllers, sqliteConfig.Controllers) {
		fmt.Println("✓ Controller configuration matches")
	} else {
		fmt.Println("✗ Controller configuration differs")
		ok = false
	}

	return ok
}
