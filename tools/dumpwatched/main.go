package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"tmovies/config"
	"tmovies/internal/store"
)

func main() {
	backend := flag.String("backend", "file", "store backend: file or sqlite")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: dumpwatched [-backend file|sqlite] <data-dir>")
		os.Exit(1)
	}

	st, err := store.New(config.StoreSettings{Backend: *backend, DataDir: flag.Arg(0)})
	if err != nil {
		panic(err)
	}

	items, err := st.Load(context.Background())
	if err != nil {
		panic(err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		panic(err)
	}
}
