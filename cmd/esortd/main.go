package main

import (
	"bufio"
	"context"
	"io"
	"iter"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/iamBelugaa/esort/pkg/codec"
	"github.com/iamBelugaa/esort/pkg/errors"
	"github.com/iamBelugaa/esort/pkg/esort"
	"github.com/iamBelugaa/esort/pkg/logger"
	"github.com/iamBelugaa/esort/pkg/options"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	zlog := logger.New("esortd")
	defer func() { _ = zlog.Sync() }()

	sorter, err := esort.New(codec.String{}, strings.Compare, options.WithLogger(zlog))
	if err != nil {
		log.Fatalf("sorter create error : %#v \n", err)
	}

	var readErr error
	out := bufio.NewWriter(os.Stdout)
	for line, err := range sorter.Sort(ctx, readLines(os.Stdin, &readErr)) {
		if err != nil {
			reportError(err)
			os.Exit(1)
		}
		// Every line has been read by the time the first one comes back sorted.
		if readErr != nil {
			log.Fatalf("read error : %v \n", readErr)
		}
		if _, err := out.WriteString(line + "\n"); err != nil {
			log.Fatalf("write error : %v \n", err)
		}
	}

	if readErr != nil {
		log.Fatalf("read error : %v \n", readErr)
	}

	if err := out.Flush(); err != nil {
		log.Fatalf("flush error : %v \n", err)
	}

	stats := sorter.Stats()
	zlog.Infow(
		"Sorted standard input",
		"mode", stats.Mode,
		"lines", stats.Items,
		"runs", stats.Runs,
		"peakOpenFiles", stats.PeakOpenFiles,
		"duration", stats.Duration,
	)
}

// readLines yields r line by line. A scan failure ends the input and is stored in errp.
func readLines(r io.Reader, errp *error) iter.Seq[string] {
	return func(yield func(string) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), int(options.MaxRecordSize))
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
		*errp = scanner.Err()
	}
}

func reportError(err error) {
	if err, ok := errors.AsStorageError(err); ok {
		log.Printf("Code: %#v \n", err.Code())
		log.Printf("Details: %#v \n", err.Details())
		log.Printf("Error: %#v \n", err.Error())
		log.Printf("FileName: %#v \n", err.FileName())
		log.Printf("Offset: %#v \n", err.Offset())
		log.Printf("Path: %#v \n", err.Path())
		log.Printf("RunID: %#v \n", err.RunID())
		return
	}

	if err, ok := errors.AsSortError(err); ok {
		log.Printf("Code: %#v \n", err.Code())
		log.Printf("Error: %#v \n", err.Error())
		log.Printf("Phase: %#v \n", err.Phase())
		log.Printf("Items: %#v \n", err.Items())
		return
	}

	log.Printf("sort error : %v \n", err)
}
