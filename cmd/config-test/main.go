package main

import (
	"flag"
	"fmt"
	"os"
	"reflect"

	"github.com/chrissnell/vaisalawx/pkg/config"
)

func main() {
	var (
		yamlFile   = flag.String("yaml", "", "Path to YAML configuration file")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite configuration file")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml> -sqlite <config.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("Configuration Comparison Test")
	fmt.Println("===========================")

	fmt.Printf("Loading YAML configuration: %s\n", *yamlFile)
	yamlConfig, err := config.NewYAMLProvider(*yamlFile).LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading YAML config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loading SQLite configuration: %s\n", *sqliteFile)
	sqliteProvider, err := config.NewSQLiteProvider(*sqliteFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating SQLite provider: %v\n", err)
		os.Exit(1)
	}
	defer sqliteProvider.Close()

	sqliteConfig, err := sqliteProvider.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading SQLite config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nComparison Results:")
	fmt.Println("==================")

	diffs := compareDevices(yamlConfig.Devices, sqliteConfig.Devices)

	fmt.Printf("Controllers - YAML: %d, SQLite: %d\n", len(yamlConfig.Controllers), len(sqliteConfig.Controllers))
	if reflect.DeepEqual(yamlConfig.Controllers, sqliteConfig.Controllers) {
		fmt.Println("✓ Controllers match")
	} else {
		fmt.Println("✗ Controllers differ")
		diffs++
	}

	if diffs > 0 {
		fmt.Printf("\n%d difference(s) found\n", diffs)
		os.Exit(1)
	}
	fmt.Println("\n✓ Configurations are equivalent")
}

// compareDevices matches devices by name; SQLite returns them sorted while
// YAML keeps file order.
func compareDevices(yamlDevices, sqliteDevices []config.DeviceData) int {
	fmt.Printf("Devices - YAML: %d, SQLite: %d\n", len(yamlDevices), len(sqliteDevices))

	byName := make(map[string]config.DeviceData, len(sqliteDevices))
	for _, d := range sqliteDevices {
		byName[d.Name] = d
	}

	diffs := 0
	for _, yd := range yamlDevices {
		sd, ok := byName[yd.Name]
		switch {
		case !ok:
			fmt.Printf("✗ Device %s missing from SQLite\n", yd.Name)
			diffs++
		case !reflect.DeepEqual(yd, sd):
			fmt.Printf("✗ Device %s differs:\n    YAML:   %+v\n    SQLite: %+v\n", yd.Name, yd, sd)
			diffs++
		default:
			fmt.Printf("✓ Device %s matches\n", yd.Name)
		}
		delete(byName, yd.Name)
	}
	for name := range byName {
		fmt.Printf("✗ Device %s only in SQLite\n", name)
		diffs++
	}
	return diffs
}
