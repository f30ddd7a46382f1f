// Command meshgwd runs the Device Runtime Core as a standalone daemon:
// it loads configuration, wires the atom cache, DDF index, event bus,
// scheduler, registry, binding coordinator and debounced persistence
// writer together, then drives the cooperative tick loop until
// interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dresden-mesh/meshgwd/atom"
	"github.com/dresden-mesh/meshgwd/binding"
	"github.com/dresden-mesh/meshgwd/common"
	"github.com/dresden-mesh/meshgwd/config"
	"github.com/dresden-mesh/meshgwd/ddf"
	"github.com/dresden-mesh/meshgwd/eventbus"
	"github.com/dresden-mesh/meshgwd/ota"
	"github.com/dresden-mesh/meshgwd/persistence/redisq"
	"github.com/dresden-mesh/meshgwd/radio"
	"github.com/dresden-mesh/meshgwd/registry"
	"github.com/dresden-mesh/meshgwd/sched"
	"github.com/dresden-mesh/meshgwd/zcl"
)

// coordinatorTickInterval is how often the scheduler drives the binding
// coordinator's task-progression logic, matched to sched.TimerTick.
const coordinatorTickInterval = sched.TimerTick

func main() {
	configFile := flag.String("config", "", "path to a meshgwd config file (optional; falls back to env vars and defaults)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	if lvl, lerr := logrus.ParseLevel(cfg.Log.Level); lerr == nil {
		common.Logger.SetLevel(lvl)
	}
	if cfg.Log.Format == "json" {
		common.Logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	}
	entry := common.NewComponentLogger("meshgwd")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cache := atom.New()
	index := ddf.NewIndex(cache)
	loadDeviceDescriptions(index, cfg.DDF.Directory, entry)

	writer, err := redisq.NewWriter(ctx, redisq.Config{RedisURL: cfg.Redis.URL, KeyPrefix: cfg.Redis.KeyPrefix}, entry)
	if err != nil {
		entry.WithError(err).Fatal("failed to connect to redis persistence backend")
	}
	defer writer.Close()

	reg := registry.New()
	otaTracker := ota.NewTracker()
	otaTracker.SetEnabled(true)

	bus := eventbus.New()
	sc := sched.New(bus, entry)

	core := newDRC(cache, index, reg, bus, entry.WithField("subcomponent", "drc"))

	driver := radio.NewFake() // HCI/serial framing is out of scope; see SPEC_FULL.
	coord := binding.NewCoordinatorWithOTAGate(bindingReachability{reg: reg}, otaTracker)
	driver.SetListener(&gatewayListener{bus: bus, reg: reg, ota: otaTracker, core: core, log: entry})

	sc.SetHandler(func(ev eventbus.Event) {
		coord.NoteOTATraffic(time.Now())
		entry.WithField("event", ev).Debug("dispatching event")
	})

	driveCoordinator(sc, driver, coord, entry.WithField("subcomponent", "binding"))

	entry.WithFields(logrus.Fields{
		"radio_device": cfg.Radio.Device,
		"ddf_dir":      cfg.DDF.Directory,
		"secrets_key":  common.MaskSecret(cfg.SecretsKey),
	}).Info("meshgwd starting")

	sc.Run(ctx)
	entry.Info("meshgwd stopped")
}

// driveCoordinator installs a self-rescheduling scheduler timer that
// starts the next eligible binding/reporting task and sweeps timed-out
// ones every coordinatorTickInterval, the "coordinator tick" step of
// SPEC_FULL §2's primary data flow that otherwise only ran inside the
// binding package's own tests.
func driveCoordinator(sc *sched.Scheduler, driver *radio.Fake, coord *binding.Coordinator, log *logrus.Entry) {
	var tick func(now time.Time)
	tick = func(now time.Time) {
		if t := coord.NextToStart(now); t != nil {
			req := radio.Request{
				Mode:        radio.AddressModeUnicast,
				DstExtAddr:  t.Key.DstAddress,
				DstEndpoint: t.Key.DstEndpoint,
				SrcEndpoint: t.Key.SrcEndpoint,
				ClusterID:   t.Key.ClusterID,
			}
			reqID, err := driver.SubmitAPSRequest(context.Background(), req)
			if err != nil {
				log.WithError(err).WithField("task_id", t.ID).Warn("failed to submit binding request")
			} else {
				t.Send(uint8(reqID), now)
				log.WithFields(logrus.Fields{"task_id": t.ID, "kind": t.Kind}).Debug("binding task sent")
			}
		}
		if retried, abandoned := coord.SweepTimeouts(now); len(retried) > 0 || len(abandoned) > 0 {
			log.WithFields(logrus.Fields{"retried": len(retried), "abandoned": len(abandoned)}).Debug("binding coordinator timeout sweep")
		}
		sc.After(coordinatorTickInterval, now, tick)
	}
	sc.After(coordinatorTickInterval, time.Now(), tick)
}

// bindingReachability answers binding.Coordinator's reachability queries
// from the device registry's tracked phase.
type bindingReachability struct {
	reg *registry.Registry
}

func (b bindingReachability) Reachable(extAddress uint64, endDevice bool, now time.Time) bool {
	s, ok := b.reg.State(fmt.Sprintf("%016x", extAddress))
	if !ok {
		return false
	}
	return s.Phase == registry.PhaseOperational
}

// gatewayListener is the radio.Listener that bridges the driver's
// callback model into the Device Runtime Core: it registers newly-seen
// devices, runs the cluster protocol engine over every indication, and
// enqueues the result onto the event bus for the scheduler's cooperative
// tick to drain.
type gatewayListener struct {
	bus  *eventbus.Bus
	reg  *registry.Registry
	ota  *ota.Tracker
	core *drc
	log  *logrus.Entry
}

func (l *gatewayListener) OnAPSDataIndication(ind radio.Indication) {
	uniqueID := fmt.Sprintf("%016x", ind.SrcExtAddr)
	now := time.Now()
	l.reg.RegisterDevice(uniqueID, now)

	header, body, err := zcl.ParseHeader(ind.Payload)
	if err != nil {
		l.log.WithError(err).WithField("uniqueid", uniqueID).Debug("indication payload is not a ZCL frame")
	} else {
		// Only OTA Upgrade cluster (0x0019) image block (0x03) and image
		// page (0x04) requests count as OTA activity.
		if ind.ClusterID == 0x0019 && (header.CommandID == 0x03 || header.CommandID == 0x04) {
			l.ota.NoteActivity(ind.SrcExtAddr, now)
		}
		zclInd := zcl.Indication{
			SrcShortAddress: ind.SrcShortAddr,
			SrcExtAddress:   ind.SrcExtAddr,
			SrcEndpoint:     ind.SrcEndpoint,
			ClusterID:       ind.ClusterID,
			ProfileID:       ind.ProfileID,
			Header:          header,
			Payload:         body,
		}
		if err := l.core.handlers.Dispatch(zclInd); err != nil {
			l.log.WithError(err).WithFields(logrus.Fields{"uniqueid": uniqueID, "cluster": ind.ClusterID}).Debug("no cluster handler for indication")
		}
	}

	l.bus.Enqueue(eventbus.Event{
		DeviceID: uniqueID,
		Numeric:  int64(ind.ClusterID),
		Payload:  ind.Payload,
		Urgent:   ind.ClusterID == 0x0500, // IAS Zone alarms skip the non-urgent lane
	})
}

func (l *gatewayListener) OnAPSDataConfirm(conf radio.Confirm) {
	l.log.WithFields(logrus.Fields{"request_id": conf.RequestID, "status": conf.Status}).Debug("aps data confirm")
}

// loadDeviceDescriptions walks dir for *.json DDF files and adds each
// parsed device to index, logging but not failing the daemon on a
// single bad file.
func loadDeviceDescriptions(index *ddf.Index, dir string, log *logrus.Entry) {
	index.BeginReload()

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.WithError(err).WithField("dir", dir).Warn("device description directory unavailable, starting with no DDFs loaded")
		return
	}

	constants := ddf.NewConstantsTable()

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			log.WithError(err).WithField("file", path).Warn("failed to read device description")
			continue
		}
		device, err := ddf.ParseDeviceJSON(raw, constants)
		if err != nil {
			log.WithError(err).WithField("file", path).Warn("failed to parse device description")
			continue
		}
		if err := index.AddDevice(device); err != nil {
			log.WithError(err).WithField("file", path).Warn("failed to index device description")
			continue
		}
	}
}
