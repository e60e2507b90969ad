// renderhost renders a YAML session through a registered plugin and
// writes the result to a WAV file, plays it, or both. It can also save
// and recall parameter presets from a SQLite bank and expose prometheus
// metrics while rendering.
//
// Usage:
//
//	renderhost -session song.yaml -out song.wav
//	renderhost -session song.yaml -play
//	renderhost -session song.yaml -preset-db bank.db -load-preset warm -out warm.wav
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"github.com/russellmcc/plugcore/pkg/host"
	"github.com/russellmcc/plugcore/pkg/preset"
	"github.com/russellmcc/plugcore/pkg/telemetry"
)

var (
	sessionPath = flag.String("session", "", "session YAML file (required)")
	outPath     = flag.String("out", "", "write rendered audio to this WAV file")
	play        = flag.Bool("play", false, "play rendered audio on the default device")
	metricsAddr = flag.String("metrics-listen", "", "serve prometheus metrics on this address while rendering")
	presetDB    = flag.String("preset-db", "", "SQLite preset bank path")
	loadPreset  = flag.String("load-preset", "", "recall this preset before rendering")
	savePreset  = flag.String("save-preset", "", "save the post-render state under this name")
	listPresets = flag.Bool("list-presets", false, "list presets for the session's plugin and exit")
)

func main() {
	flag.Parse()
	defer glog.Flush()
	if err := run(); err != nil {
		glog.Errorf("%v", err)
		glog.Flush()
		os.Exit(1)
	}
}

func run() error {
	if *sessionPath == "" {
		return errors.New("missing -session (registered plugins: " + fmt.Sprint(host.Names()) + ")")
	}
	sess, err := host.LoadSession(*sessionPath)
	if err != nil {
		return err
	}

	var bank *preset.Bank
	if *presetDB != "" {
		bank, err = preset.Open(*presetDB)
		if err != nil {
			return err
		}
		defer bank.Close()
	}
	if bank == nil && (*loadPreset != "" || *savePreset != "" || *listPresets) {
		return errors.New("preset flags need -preset-db")
	}
	if *listPresets {
		infos, err := bank.List(sess.Plugin)
		if err != nil {
			return err
		}
		for _, info := range infos {
			fmt.Printf("%s\t%s\n", info.Name, info.Updated.Format(time.RFC3339))
		}
		return nil
	}

	var metrics *telemetry.Metrics
	if *metricsAddr != "" {
		metrics = telemetry.New()
	}

	runner, err := host.NewRunner(sess, metrics)
	if err != nil {
		return err
	}
	defer runner.Close()

	if *loadPreset != "" {
		blob, err := bank.Load(sess.Plugin, *loadPreset)
		if err != nil {
			return err
		}
		if err := runner.Component().SetState(blob); err != nil {
			return err
		}
		glog.Infof("recalled preset %q", *loadPreset)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var output [][]float32
	g, gctx := errgroup.WithContext(ctx)

	// The metrics endpoint stays up only as long as the render runs;
	// renderCtx is cancelled when the render goroutine finishes for any
	// reason, which unblocks the server goroutine.
	renderCtx, renderDone := context.WithCancel(gctx)
	if metrics != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: *metricsAddr, Handler: mux}
		g.Go(func() error {
			glog.Infof("metrics on http://%s/metrics", *metricsAddr)
			if err := srv.ListenAndServe(); err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-renderCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer renderDone()
		output, err = runner.Render(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if *savePreset != "" {
		blob, err := runner.Component().GetState()
		if err != nil {
			return err
		}
		if err := bank.Save(sess.Plugin, *savePreset, blob); err != nil {
			return err
		}
		glog.Infof("saved preset %q", *savePreset)
	}

	if *outPath != "" {
		if err := host.WriteWAV(*outPath, output, int(sess.SampleRate)); err != nil {
			return err
		}
		glog.Infof("wrote %s", *outPath)
	}
	if *play {
		if err := host.Play(ctx, output, int(sess.SampleRate)); err != nil {
			return err
		}
	}
	if *outPath == "" && !*play && *savePreset == "" {
		glog.Warningf("rendered %d frames but no -out, -play or -save-preset given", len(output[0]))
	}
	return nil
}
