// Program schedsim boots the scheduler on the host port with a wall-clock
// tick and runs a mixed workload: a semaphore producer and consumer,
// sleepers, and equal-priority spinners sharing the CPU by time slicing.
// It prints the scheduler counters and can write a pprof profile of CPU
// use per thread and a PNG timeline of context switches.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"zsched/arch"
	"zsched/clock"
	"zsched/defs"
	"zsched/kconfig"
	"zsched/kprof"
	"zsched/ksem"
	"zsched/sched"
	"zsched/stats"
	"zsched/timeline"
)

var (
	config   = flag.String("config", "", "`.config` file with CONFIG_ options")
	duration = flag.Int("duration", 200, "run for `ticks` of simulated time")
	nspin    = flag.Int("threads", 3, "number of spinning threads")
	slice    = flag.Int("slice", 4, "time slice in ticks when the config sets none")
	profout  = flag.String("profile", "", "write a pprof CPU profile to `file`")
	tlout    = flag.String("timeline", "", "write a PNG switch timeline to `file`")
	width    = flag.Int("width", 1200, "timeline width in pixels")
	wall     = flag.Duration("wall", time.Minute, "give up if the kernel has not halted after this long")
)

func loadconf() *kconfig.Kconfig_t {
	conf := kconfig.MkKconfig()
	if *config != "" {
		f, err := os.Open(*config)
		if err != nil {
			log.Fatal(err)
		}
		err = conf.Parse(f)
		f.Close()
		if err != nil {
			log.Fatalf("%s: %v", *config, err)
		}
	}
	if conf.Slice_ticks == 0 {
		conf.Slice_ticks = *slice
	}
	return conf
}

type workload_t struct {
	k        *sched.Kernel_t
	sem      ksem.Sem_t
	stop     bool
	produced int
	consumed int
	timeouts int
	spins    []int64
}

func (w *workload_t) supervisor() {
	w.k.Sleep(defs.Ticks(int64(*duration)))
	w.stop = true
	w.k.Shutdown()
}

func (w *workload_t) producer() {
	for !w.stop {
		w.k.Sleep(defs.Ticks(3))
		w.produced++
		w.sem.Give()
	}
}

func (w *workload_t) consumer() {
	for !w.stop {
		switch w.sem.Take(defs.Ticks(10)) {
		case 0:
			w.consumed++
		case defs.TimedOut:
			w.timeouts++
		}
	}
}

func (w *workload_t) sleeper(n int64) {
	for !w.stop {
		w.k.Sleep(defs.Ticks(n))
		w.k.Yield()
	}
}

func (w *workload_t) spinner(i int) {
	for !w.stop {
		w.spins[i]++
		w.k.Checkpoint()
	}
}

func (w *workload_t) spawn(name string, prio defs.Prio_t, f func()) {
	if _, err := w.k.Create(name, prio, f, defs.NoWait); err != 0 {
		log.Fatalf("create %s: %v", name, err)
	}
}

func writeout(name string, f func(*os.File) error) error {
	fd, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := f(fd); err != nil {
		fd.Close()
		return fmt.Errorf("%s: %w", name, err)
	}
	return fd.Close()
}

func main() {
	flag.Parse()
	log.SetFlags(0)
	log.SetPrefix("schedsim: ")

	conf := loadconf()
	k, err := sched.MkKernel(conf, arch.MkHost())
	if err != nil {
		log.Fatal(err)
	}
	w := &workload_t{k: k, spins: make([]int64, *nspin)}
	if r := w.sem.Init(k, 0, 8); r != 0 {
		log.Fatalf("semaphore: %v", r)
	}
	w.spawn("supervisor", conf.PrioPreempt(0), w.supervisor)
	w.spawn("producer", conf.PrioPreempt(2), w.producer)
	w.spawn("consumer", conf.PrioPreempt(3), w.consumer)
	w.spawn("sleeper5", conf.PrioPreempt(4), func() { w.sleeper(5) })
	w.spawn("sleeper7", conf.PrioPreempt(4), func() { w.sleeper(7) })
	for i := 0; i < *nspin; i++ {
		i := i
		w.spawn(fmt.Sprintf("spin%d", i), conf.PrioPreempt(8), func() { w.spinner(i) })
	}

	period := clock.Period(conf.Ticks_per_sec)
	tk := clock.Start(k, period, k.Halted())
	start := time.Now()
	go k.Run()
	select {
	case <-k.Halted():
	case <-time.After(*wall):
		log.Fatalf("kernel did not halt within %v", *wall)
	}
	tk.Stop()

	log.Printf("ran %d ticks in %v; produced %d consumed %d, %d take timeouts",
		k.Uptime(), time.Since(start).Round(time.Millisecond),
		w.produced, w.consumed, w.timeouts)
	for i, n := range w.spins {
		log.Printf("spin%d: %d iterations", i, n)
	}
	fmt.Print(stats.Stats2String(k.Stats()))

	threads := k.Snapshot()
	spans := timeline.Spans(k.Trace(), k.Uptime())
	var g errgroup.Group
	if *profout != "" {
		g.Go(func() error {
			return writeout(*profout, func(f *os.File) error {
				return kprof.Write(f, threads, period)
			})
		})
	}
	if *tlout != "" {
		g.Go(func() error {
			return writeout(*tlout, func(f *os.File) error {
				return timeline.WritePNG(f, spans, *width)
			})
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
}
