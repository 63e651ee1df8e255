// Command trackseed imports corner layouts from a Crew Chief
// trackLandmarksData.json file (local path or URL) into the track
// database.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/lapsight-data/lapsight/internal/trackdb"
)

var (
	dbFile    = flag.String("db", "lapsight.db", "Path to the sqlite database")
	overrides = flag.String("overrides", "", "Optional JSON file of landmark name overrides, keyed \"track/landmark\"")
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <trackLandmarksData.json | URL>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	src, err := openSource(flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to open landmarks source: %v", err)
	}
	defer src.Close()

	nameOverrides, err := loadOverrides(*overrides)
	if err != nil {
		log.Fatalf("Failed to load overrides: %v", err)
	}

	db, err := trackdb.NewDB(*dbFile)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	tracks, corners, err := db.SeedCrewChief(src, nameOverrides)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	fmt.Printf("seeded %d tracks, %d corners\n", tracks, corners)
}

func openSource(arg string) (io.ReadCloser, error) {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		client := &http.Client{Timeout: 30 * time.Second}
		resp, err := client.Get(arg)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch %s: %s", arg, resp.Status)
		}
		return resp.Body, nil
	}
	return os.Open(arg)
}

func loadOverrides(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out map[string]string
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
