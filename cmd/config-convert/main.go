package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chrissnell/purpleaqi/pkg/config"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file (required)")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite database file (required)")
		force      = flag.Bool("force", false, "Overwrite existing SQLite database")
		dryRun     = flag.Bool("dry-run", false, "Show what would be done without executing")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml> -sqlite <config.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Check if YAML file exists
	if _, err := os.Stat(*yamlFile); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: YAML file does not exist: %s\n", *yamlFile)
		os.Exit(1)
	}

	// Check if SQLite file already exists
	if _, err := os.Stat(*sqliteFile); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "Error: SQLite file already exists: %s\n", *sqliteFile)
		fmt.Fprintf(os.Stderr, "Use -force to overwrite or choose a different filename\n")
		os.Exit(1)
	}

	fmt.Printf("Converting YAML configuration to SQLite...\n")
	fmt.Printf("  Source: %s\n", *yamlFile)
	fmt.Printf("  Target: %s\n", *sqliteFile)

	// Load YAML configuration
	yamlProvider := config.NewYAMLProvider(*yamlFile)
	configData, err := yamlProvider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading YAML configuration: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("  Loaded %d sensors, %d controllers\n", len(configData.Sensors), len(configData.Controllers))

	if *dryRun {
		printConfigSummary(configData)
		fmt.Println("DRY RUN complete - no database created")
		return
	}

	// Remove existing SQLite file if force is specified
	if *force {
		if err := os.Remove(*sqliteFile); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error removing existing SQLite file: %v\n", err)
			os.Exit(1)
		}
	}

	sqliteProvider, err := config.NewSQLiteProvider(*sqliteFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating SQLite database: %v\n", err)
		os.Exit(1)
	}
	defer sqliteProvider.Close()

	if err := sqliteProvider.SaveConfig(configData); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration into SQLite: %v\n", err)
		sqliteProvider.Close()
		os.Exit(1)
	}

	fmt.Printf("Conversion completed successfully!\n")
	fmt.Printf("You can now use the SQLite backend with: -config-backend sqlite -config %s\n", *sqliteFile)
}

func printConfigSummary(c *config.ConfigData) {
	fmt.Println("\nSensors:")
	for _, s := range c.Sensors {
		source := "sensor-id " + s.SensorID
		if s.LocalIP != "" {
			source = "local-ip " + s.LocalIP
		}
		fmt.Printf("  - %s (%s, enabled: %v, calibration: %q, stats-key: %q)\n",
			s.Name, source, s.Enabled, s.Calibration, s.StatsKey)
	}

	fmt.Println("\nStorage:")
	if c.Storage.TimescaleDB != nil {
		fmt.Println("  - timescaledb")
	}
	if c.Storage.MQTT != nil {
		fmt.Printf("  - mqtt (%s)\n", c.Storage.MQTT.Broker)
	}
	if c.Storage.Kafka != nil {
		fmt.Printf("  - kafka (%v, topic %s)\n", c.Storage.Kafka.Brokers, c.Storage.Kafka.Topic)
	}
	if c.Storage.Redis != nil {
		fmt.Printf("  - redis (%s)\n", c.Storage.Redis.Addr)
	}

	fmt.Println("\nControllers:")
	for _, con := range c.Controllers {
		fmt.Printf("  - %s\n", con.Type)
	}
}
