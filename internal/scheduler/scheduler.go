// Package scheduler запускает периодические задачи по min-куче моментов запуска.
//
// Один цикл ждет ближайший момент, снимает с кучи все наступившие задачи,
// запускает каждую в своей горутине и возвращает их в кучу с новым моментом.
// Задача, предыдущий запуск которой еще не завершился, в этот тик пропускается.
package scheduler

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"course-notify-bot/internal/clock"

	"github.com/sirupsen/logrus"
)

// JobFunc - тело задачи. now - запланированный момент запуска.
type JobFunc func(ctx context.Context, now time.Time) error

type job struct {
	name     string
	schedule Schedule
	fn       JobFunc
	next     time.Time
	running  atomic.Bool
}

// Scheduler - планировщик задач. Задачи регистрируются до вызова Run.
type Scheduler struct {
	clock  clock.Clock
	logger *logrus.Logger
	jobs   []*job
	wg     sync.WaitGroup
}

// New создает планировщик.
func New(clk clock.Clock, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		clock:  clk,
		logger: logger,
	}
}

// Add регистрирует задачу.
func (s *Scheduler) Add(name string, schedule Schedule, fn JobFunc) {
	s.jobs = append(s.jobs, &job{name: name, schedule: schedule, fn: fn})
}

// Run блокируется до отмены ctx, затем дожидается завершения запущенных задач.
func (s *Scheduler) Run(ctx context.Context) error {
	now := s.clock.Now()
	queue := make(jobHeap, 0, len(s.jobs))
	for _, j := range s.jobs {
		j.next = j.schedule.Next(now)
		queue = append(queue, j)
		s.logger.WithFields(logrus.Fields{
			"job":      j.name,
			"next_run": j.next,
		}).Info("Job scheduled")
	}
	heap.Init(&queue)

	defer s.wg.Wait()

	for {
		if queue.Len() == 0 {
			<-ctx.Done()
			return nil
		}

		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopping, waiting for running jobs")
			return nil
		case <-s.clock.After(queue[0].next.Sub(s.clock.Now())):
		}

		now := s.clock.Now()
		for queue.Len() > 0 && !queue[0].next.After(now) {
			j := heap.Pop(&queue).(*job)
			s.launch(ctx, j, j.next)
			j.next = j.schedule.Next(now)
			heap.Push(&queue, j)
		}
	}
}

func (s *Scheduler) launch(ctx context.Context, j *job, at time.Time) {
	entry := s.logger.WithField("job", j.name)

	if !j.running.CompareAndSwap(false, true) {
		entry.Warn("Previous run still in progress, skipping tick")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer j.running.Store(false)

		start := s.clock.Now()
		err := s.safeRun(ctx, j, at)
		entry = entry.WithField("duration", s.clock.Now().Sub(start))
		if err != nil {
			entry.WithError(err).Error("Job failed")
			return
		}
		entry.Debug("Job finished")
	}()
}

func (s *Scheduler) safeRun(ctx context.Context, j *job, at time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return j.fn(ctx, at)
}

// jobHeap - min-куча задач по моменту следующего запуска.
type jobHeap []*job

func (h jobHeap) Len() int           { return len(h) }
func (h jobHeap) Less(i, j int) bool { return h[i].next.Before(h[j].next) }
func (h jobHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *jobHeap) Push(x any)        { *h = append(*h, x.(*job)) }
func (h *jobHeap) Pop() any {
	old := *h
	j := old[len(old)-1]
	*h = old[:len(old)-1]
	return j
}
