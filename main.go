package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mvaillant/aria/internal/ads"
	"github.com/mvaillant/aria/internal/analytics"
	"github.com/mvaillant/aria/internal/attribution"
	"github.com/mvaillant/aria/internal/config"
	"github.com/mvaillant/aria/internal/errmsg"
	"github.com/mvaillant/aria/internal/media"
	"github.com/mvaillant/aria/internal/queue"
	"github.com/mvaillant/aria/internal/session"
	"github.com/mvaillant/aria/internal/state"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg.Logs)

	stateMgr, err := state.Open()
	if err != nil {
		fmt.Fprintln(os.Stderr, errmsg.Format(errmsg.OpInitialize, err))
		os.Exit(1)
	}
	defer stateMgr.Close()

	engine, emitter := buildEngine(cfg, stateMgr)
	// Deferred in this order so the engine shuts down before the emitter
	// stops draining.
	if emitter != nil {
		defer emitter.Close()
	}
	defer engine.Close()

	if err := engine.Restore(); err != nil {
		logrus.Warn(errmsg.Format(errmsg.OpSnapshotLoad, err))
	}

	for _, path := range os.Args[1:] {
		engine.AddToQueue(trackFromPath(path))
	}

	go reportEvents(engine.Subscribe())
	runCommandLoop(engine)
}

func setupLogging(cfg config.LogsConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
		if err == nil {
			logrus.SetOutput(f)
		}
	}
}

func buildEngine(cfg *config.Config, stateMgr *state.Manager) (*session.Engine, *analytics.Async) {
	adsCfg := cfg.GetAds()
	catalog := ads.CatalogFunc(func(string) ([]ads.Advertisement, error) {
		out := make([]ads.Advertisement, 0, len(adsCfg.Catalog))
		for _, entry := range adsCfg.Catalog {
			out = append(out, ads.Advertisement{
				ID:         entry.ID,
				AudioURI:   entry.AudioURI,
				ClickURI:   entry.ClickURI,
				Advertiser: entry.Advertiser,
			})
		}
		return out, nil
	})
	adEngine := ads.New(catalog, stateMgr, adsCfg.Placement,
		ads.WithDailyCap(adsCfg.DailyCap),
		ads.WithProbability(adsCfg.Probability),
	)

	attrCfg := cfg.GetAttribution()
	policy := attribution.ResumeCumulative
	if attrCfg.ResumePolicy == "restart" {
		policy = attribution.ResumeRestart
	}
	tracker := attribution.New(time.Duration(attrCfg.ThresholdSeconds)*time.Second, policy)

	var emitter analytics.Emitter = analytics.Nop{}
	var async *analytics.Async
	if cfg.HasCollector() {
		async = analytics.NewAsync(analytics.NewCollector(cfg.Analytics.CollectorURL))
		emitter = async
	}

	q := queue.New()
	queueCfg := cfg.GetQueue()
	if queueCfg.RepeatCycle == "none-all-one" {
		q.SetCycleOrder(queue.CycleNoneAllOne)
	}
	if queueCfg.ShuffleDraw == "permutation" {
		q.SetShuffleDraw(queue.DrawPermutation)
	}

	tier := session.TierFree
	if cfg.User.Premium {
		tier = session.TierPremium
	}

	engine := session.New(media.NewLocal(), media.NewLocal(), q, adEngine, session.Options{
		UserID:      cfg.User.ID,
		Entitlement: func() (session.Tier, error) { return tier, nil },
		Tracker:     tracker,
		Emitter:     emitter,
		Store:       stateMgr,
		DeviceClass: cfg.GetAnalytics().DeviceClass,
		LoadTimeout: time.Duration(cfg.GetMedia().LoadTimeoutSeconds) * time.Second,
	})
	return engine, async
}

func trackFromPath(path string) queue.Track {
	return queue.Track{
		ID:       path,
		Title:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		MediaURI: path,
	}
}

func reportEvents(sub *session.Subscription) {
	for {
		select {
		case e := <-sub.StateChanged:
			fmt.Printf("state: %s -> %s\n", e.Previous, e.Current)
		case e := <-sub.TrackChanged:
			fmt.Printf("track: %s\n", e.Current.Title)
		case e := <-sub.AdChanged:
			if e.Ad != nil {
				fmt.Printf("ad: %s (%s)\n", e.Ad.ID, e.Ad.Advertiser)
			}
		case e := <-sub.Notices:
			fmt.Println(e.Text)
		case <-sub.Done:
			return
		}
	}
}

func runCommandLoop(engine *session.Engine) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("commands: play [n], pause, toggle, stop, next, prev, seek <s>, vol <0-1>,")
	fmt.Println("          add <path>, rm <n>, clear, queue, shuffle, repeat, skipad, quit")
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "play":
			if len(fields) > 1 {
				if n, err := strconv.Atoi(fields[1]); err == nil {
					tracks := engine.QueueTracks()
					if n >= 0 && n < len(tracks) {
						engine.Play(&tracks[n])
					}
				}
				continue
			}
			engine.Play(nil)
		case "pause":
			engine.Pause()
		case "toggle":
			engine.TogglePlayPause()
		case "stop":
			engine.Stop()
		case "next":
			engine.Next()
		case "prev":
			engine.Previous()
		case "seek":
			if len(fields) > 1 {
				if s, err := strconv.ParseFloat(fields[1], 64); err == nil {
					engine.Seek(time.Duration(s * float64(time.Second)))
				}
			}
		case "vol":
			if len(fields) > 1 {
				if v, err := strconv.ParseFloat(fields[1], 64); err == nil {
					engine.SetVolume(v)
				}
			}
		case "add":
			if len(fields) > 1 {
				engine.AddToQueue(trackFromPath(fields[1]))
			}
		case "rm":
			if len(fields) > 1 {
				if n, err := strconv.Atoi(fields[1]); err == nil {
					engine.RemoveFromQueue(n)
				}
			}
		case "clear":
			engine.ClearQueue()
		case "queue":
			for i, t := range engine.QueueTracks() {
				marker := "  "
				if i == engine.QueueIndex() {
					marker = "> "
				}
				fmt.Printf("%s%d. %s\n", marker, i, t.Title)
			}
		case "shuffle":
			fmt.Printf("shuffle: %v\n", engine.ToggleShuffle())
		case "repeat":
			fmt.Printf("repeat: %s\n", engine.CycleRepeat())
		case "skipad":
			engine.SkipAd()
		case "quit", "exit":
			return
		default:
			fmt.Printf("unknown command: %s\n", fields[0])
		}
	}
}
