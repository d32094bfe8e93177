package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/LJTian/SecNewsHub/internal/processor"
	"github.com/robfig/cron/v3"
)

// Runner 执行一整轮采集
type Runner interface {
	Run(ctx context.Context) (processor.AggregatedNews, error)
}

type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	entryID cron.EntryID
}

// New 同一时间最多只有一轮在跑，上一轮未结束时本次触发直接跳过
func New(spec string, runner Runner) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log.Default()))))

	s := &Scheduler{
		cron:   c,
		runner: runner,
	}

	id, err := c.AddFunc(spec, s.runOnce)
	if err != nil {
		return nil, err
	}
	s.entryID = id

	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	// 延迟执行首轮采集，避免和 API 启动争抢资源
	const startupDelay = 15 * time.Second
	time.AfterFunc(startupDelay, s.RunOnce)
}

// Stop 停止调度，返回的 ctx 在正在执行的任务结束后关闭
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunOnce 手动触发一轮，与定时任务共享“不重叠”约束
func (s *Scheduler) RunOnce() {
	s.cron.Entry(s.entryID).WrappedJob.Run()
}

func (s *Scheduler) Cron() *cron.Cron {
	return s.cron
}

func (s *Scheduler) runOnce() {
	if _, err := s.runner.Run(context.Background()); err != nil {
		log.Printf("collect job error: %v", err)
	}
}
