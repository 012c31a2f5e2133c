package main

import (
	"cmp"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	genv "github.com/blong14/ledger/internal/environment"
	gerrors "github.com/blong14/ledger/internal/errors"
	gencoding "github.com/blong14/ledger/internal/io/encoding"
	gfile "github.com/blong14/ledger/internal/io/file"
	glimiter "github.com/blong14/ledger/internal/limiter"
	glog "github.com/blong14/ledger/internal/logging"
	"github.com/blong14/ledger/store"
	glvl "github.com/blong14/ledger/store/levelmap"
	gmem "github.com/blong14/ledger/store/memory"
	"github.com/blong14/ledger/store/replay"
	gsorted "github.com/blong14/ledger/store/sorted"
	"github.com/blong14/ledger/store/traced"
)

const (
	service     = "ledgerctl"
	environment = "production"
)

var ErrUsage = errors.New("usage: ledgerctl -data <file.csv> [-backend memory|sorted|leveldb] [-rate n] [-out file.csv] <get|contains|remove <key> | keys | values | entries>")

func tracerProvider(url string) (*tracesdk.TracerProvider, error) {
	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(url)))
	if err != nil {
		return nil, err
	}
	tp := tracesdk.NewTracerProvider(
		tracesdk.WithBatcher(exp),
		tracesdk.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(service),
			attribute.String("environment", environment),
		)),
	)
	return tp, nil
}

type config struct {
	data    string
	backend string
	rate    int
	out     string
	args    []string
}

func parse(args []string) (*config, error) {
	fs := flag.NewFlagSet(service, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cfg := &config{}
	fs.StringVar(&cfg.data, "data", "", "csv file of key,value rows to load")
	fs.StringVar(&cfg.backend, "backend", genv.Backend(), "backing store: memory, sorted or leveldb")
	fs.IntVar(&cfg.rate, "rate", 0, "inserts per second while loading; 0 for unlimited")
	fs.StringVar(&cfg.out, "out", "", "write the final entries to this csv file")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}
	cfg.args = fs.Args()
	if cfg.data == "" || len(cfg.args) == 0 {
		return nil, ErrUsage
	}
	return cfg, nil
}

// open returns the backing store named by backend and a func releasing it.
func open(backend string) (store.Store[string, string], func() error, error) {
	nop := func() error { return nil }
	switch backend {
	case genv.MemoryBackend:
		return gmem.New[string, string](), nop, nil
	case genv.SortedBackend:
		return gsorted.New[string, string](strings.Compare), nop, nil
	case genv.LevelDBBackend:
		m, err := glvl.New(
			glvl.WithKeyCodec[string, string](gencoding.String{}),
			glvl.WithValueCodec[string, string](gencoding.String{}),
		)
		if err != nil {
			return nil, nil, err
		}
		return m, m.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", backend)
	}
}

func run(ctx context.Context, args []string, w io.Writer) (err error) {
	cfg, err := parse(args)
	if err != nil {
		return err
	}
	rows, err := gfile.ReadCSV(cfg.data)
	if err != nil {
		return err
	}
	src := gmem.FromEntries(rows...)

	impl, closer, err := open(cfg.backend)
	if err != nil {
		return err
	}
	defer func() {
		err = gerrors.Append(err, closer()).ErrorOrNil()
	}()
	dst := traced.New(impl, traced.WithContext[string, string](ctx))

	start := time.Now()
	count, err := replay.Replay[string, string](ctx, dst, src.Iter(), glimiter.New(cfg.rate, time.Second))
	if err != nil {
		return err
	}
	if err := replay.Verify[string, string](src, dst, replay.Equal[string]); err != nil {
		return err
	}
	glog.Track("loaded %d entries into %s in %s", count, cfg.backend, time.Since(start))

	if err := execute(dst, cfg.args, w); err != nil {
		return err
	}
	if cfg.out != "" {
		return gfile.WriteCSV(cfg.out, sortedEntries(dst))
	}
	return nil
}

func sortedEntries(m store.MapReader[string, string]) []store.Entry[string, string] {
	entries := store.Collect(m.Iter())
	slices.SortFunc(entries, func(a, b store.Entry[string, string]) int {
		return cmp.Compare(a.Key, b.Key)
	})
	return entries
}

func execute(m store.Store[string, string], args []string, w io.Writer) error {
	cmd, rest := args[0], args[1:]
	key := func() (string, error) {
		if len(rest) != 1 {
			return "", fmt.Errorf("%s: %w", cmd, ErrUsage)
		}
		return rest[0], nil
	}
	switch cmd {
	case "get":
		k, err := key()
		if err != nil {
			return err
		}
		view, ok, err := m.Get(k)
		if err != nil {
			return err
		}
		if !ok {
			_, err = fmt.Fprintf(w, "%s\t(absent)\n", k)
			return err
		}
		_, err = fmt.Fprintf(w, "%s\t%s\n", k, view.Value())
		return err
	case "contains":
		k, err := key()
		if err != nil {
			return err
		}
		ok, err := m.ContainsKey(k)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\t%t\n", k, ok)
		return err
	case "remove":
		k, err := key()
		if err != nil {
			return err
		}
		if err := m.Remove(k); err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\tremoved\n", k)
		return err
	case "keys":
		for _, k := range slices.Sorted(m.Keys()) {
			if _, err := fmt.Fprintln(w, k); err != nil {
				return err
			}
		}
		return nil
	case "values":
		for _, e := range sortedEntries(m) {
			if _, err := fmt.Fprintln(w, e.Value); err != nil {
				return err
			}
		}
		return nil
	case "entries":
		for i, e := range sortedEntries(m) {
			if _, err := fmt.Fprintf(w, "%d.\t%s\t%s\n", i+1, e.Key, e.Value); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, ErrUsage)
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var tp *tracesdk.TracerProvider
	if genv.TraceEnabled() {
		var err error
		tp, err = tracerProvider(genv.JaegerURL())
		if err != nil {
			log.Fatal(err)
		}
		otel.SetTracerProvider(tp)
	}

	err := run(ctx, os.Args[1:], os.Stdout)
	if tp != nil {
		err = gerrors.Append(err, tp.ForceFlush(ctx), tp.Shutdown(ctx)).ErrorOrNil()
	}
	if err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
