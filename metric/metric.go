// Package metric publishes runtime counters of running components with
// expvar. Counters are aggregated per component type.
package metric

import (
	"expvar"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pipelined/pedals/signal"
)

const componentsLabel = "pedals.components"

const (
	// FrameCounter measures number of processed frames.
	FrameCounter = "Frames"
	// SampleCounter measures number of samples.
	SampleCounter = "Samples"
	// LatencyCounter measures latency between processing calls.
	LatencyCounter = "Latency"
	// DurationCounter counts what's the duration of signal.
	DurationCounter = "Duration"
	// ComponentCounter counts number of components.
	ComponentCounter = "Components"
	// OverrunCounter counts transport writes that didn't fit.
	OverrunCounter = "Overruns"
	// UnderrunCounter counts transport reads that were zero-filled.
	UnderrunCounter = "Underruns"
	// ChannelFaultCounter counts control commands and events that were
	// dropped or couldn't be delivered.
	ChannelFaultCounter = "ChannelFaults"
	// UnitFaultCounter counts faults returned by units.
	UnitFaultCounter = "UnitFaults"
)

var (
	components = metrics{
		m: make(map[string]metric),
	}

	counters = []string{
		FrameCounter,
		SampleCounter,
		LatencyCounter,
		DurationCounter,
		ComponentCounter,
		OverrunCounter,
		UnderrunCounter,
		ChannelFaultCounter,
		UnitFaultCounter,
	}

	faultCounters = map[string]bool{
		OverrunCounter:      true,
		UnderrunCounter:     true,
		ChannelFaultCounter: true,
		UnitFaultCounter:    true,
	}
)

// Get metrics values for provided component type.
func Get(component interface{}) map[string]string {
	return getCounters(getType(component))
}

// GetAll returns counters for all measured components.
func GetAll() map[string]map[string]string {
	m := make(map[string]map[string]string)
	components.Lock()
	defer components.Unlock()
	for component := range components.m {
		m[component] = getCounters(component)
	}
	return m
}

func getCounters(componentType string) map[string]string {
	m := make(map[string]string)
	for _, counter := range counters {
		v := expvar.Get(key(componentType, counter))
		if v != nil {
			m[counter] = v.String()
		}
	}
	return m
}

// ResetFunc returns new Measure closure. This closure is needed to postpone metrics
// capture until component is actually running.
type ResetFunc func() MeasureFunc

// MeasureFunc captures metrics when frame is processed. Size is the
// number of frames per channel.
type MeasureFunc func(size int64)

// CountFunc increments a fault counter.
type CountFunc func()

// Meter creates new meter closure to capture component counters.
func Meter(component interface{}, sampleRate int) ResetFunc {
	t := getType(component)
	metric := components.get(t)
	metric.components.Add(1)
	return func() MeasureFunc {
		calledAt := time.Now()
		var (
			frameSize     int64
			frameDuration time.Duration
		)
		return func(s int64) {
			metric.latency.set(time.Since(calledAt))
			metric.frames.Add(1)
			metric.samples.Add(s)
			// recalculate frame duration only when frame size has changed
			if frameSize != s {
				frameSize = s
				frameDuration = signal.DurationOf(sampleRate, s)
			}
			metric.duration.add(frameDuration)
			calledAt = time.Now()
		}
	}
}

// Fault returns a function that counts faults of the component. Counter
// must be one of fault counters.
func Fault(component interface{}, counter string) CountFunc {
	if !faultCounters[counter] {
		panic(fmt.Sprintf("metric: %s is not a fault counter", counter))
	}
	v := components.get(getType(component)).faults[counter]
	return func() {
		v.Add(1)
	}
}

type metrics struct {
	sync.Mutex
	m map[string]metric
}

func (m *metrics) get(componentType string) metric {
	m.Lock()
	defer m.Unlock()
	if metric, ok := m.m[componentType]; ok {
		// return existing metric if available
		return metric
	}
	// create new metric
	metric := newMetric(componentType)
	m.m[componentType] = metric
	return metric
}

type metric struct {
	components *expvar.Int
	frames     *expvar.Int
	samples    *expvar.Int
	latency    *duration
	duration   *duration
	faults     map[string]*expvar.Int
}

func newMetric(componentType string) metric {
	m := metric{
		components: expvar.NewInt(key(componentType, ComponentCounter)),
		frames:     expvar.NewInt(key(componentType, FrameCounter)),
		samples:    expvar.NewInt(key(componentType, SampleCounter)),
		latency:    &duration{},
		duration:   &duration{},
		faults:     make(map[string]*expvar.Int, len(faultCounters)),
	}
	for counter := range faultCounters {
		m.faults[counter] = expvar.NewInt(key(componentType, counter))
	}
	expvar.Publish(key(componentType, LatencyCounter), m.latency)
	expvar.Publish(key(componentType, DurationCounter), m.duration)
	return m
}

func key(componentType, counter string) string {
	return fmt.Sprintf("%s.%s.%s", componentsLabel, componentType, counter)
}

func getType(component interface{}) string {
	rv := reflect.ValueOf(component)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	return rv.Type().String()
}

// duration allows to format time.Duration metric values.
type duration struct {
	d int64
}

func (v *duration) String() string {
	return fmt.Sprintf("%v", time.Duration(atomic.LoadInt64(&v.d)))
}

func (v *duration) add(delta time.Duration) {
	atomic.AddInt64(&v.d, int64(delta))
}

func (v *duration) set(value time.Duration) {
	atomic.StoreInt64(&v.d, int64(value))
}
