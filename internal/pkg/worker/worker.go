package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vidtube/pkg/metrics"

	"go.uber.org/zap"
)

// CleanupTask 级联删除中失败的子步骤，交由后台补偿
type CleanupTask struct {
	Kind       string     `json:"kind"`   // 父实体类别: video, community_post, comment
	ID         string     `json:"id"`     // 父实体 ID
	Step       string     `json:"step"`   // 失败的步骤，仅用于日志
	Reason     string     `json:"reason"` // 最近一次失败原因
	Retry      int        `json:"retry"`  // 重试次数
	Media      []MediaRef `json:"media,omitempty"`
	EnqueuedAt time.Time  `json:"enqueuedAt"`
}

// MediaRef 待释放的对象存储文件
type MediaRef struct {
	Category string `json:"category"`
	URL      string `json:"url"`
}

func (t CleanupTask) String() string {
	return fmt.Sprintf("%s/%s step=%s retry=%d", t.Kind, t.ID, t.Step, t.Retry)
}

// Processor 执行补偿逻辑
type Processor interface {
	Process(ctx context.Context, task CleanupTask) error
}

// ProcessorFunc 函数适配器
type ProcessorFunc func(ctx context.Context, task CleanupTask) error

func (f ProcessorFunc) Process(ctx context.Context, task CleanupTask) error {
	return f(ctx, task)
}

// DeadLetter 超过重试次数的任务落地处
type DeadLetter interface {
	Push(ctx context.Context, task CleanupTask) error
	Drain(ctx context.Context, max int) ([]CleanupTask, error)
}

// Options 工作池参数
type Options struct {
	WorkerNum  int
	BufferSize int
	MaxRetry   int
	RetryDelay time.Duration // 第 n 次重试前等待 n*RetryDelay
}

// WorkerPool 补偿任务工作池
type WorkerPool struct {
	taskQueue  chan CleanupTask
	retryQueue chan CleanupTask
	processor  Processor
	deadLetter DeadLetter
	opts       Options
	log        *zap.Logger
	metrics    *metrics.Collector

	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool 创建工作池，m 可为 nil
func NewWorkerPool(processor Processor, deadLetter DeadLetter, opts Options, log *zap.Logger, m *metrics.Collector) *WorkerPool {
	if opts.WorkerNum <= 0 {
		opts.WorkerNum = 1
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 64
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	return &WorkerPool{
		taskQueue:  make(chan CleanupTask, opts.BufferSize),
		retryQueue: make(chan CleanupTask, opts.BufferSize/2+1),
		processor:  processor,
		deadLetter: deadLetter,
		opts:       opts,
		log:        log,
		metrics:    m,
	}
}

// Start 启动 worker 与重试协程
func (p *WorkerPool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.opts.WorkerNum; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	p.wg.Add(1)
	go p.retryWorker(ctx)
	p.log.Info("cleanup worker pool started", zap.Int("workers", p.opts.WorkerNum))
}

// Stop 停止接收任务，等待 worker 退出，未处理的任务转入死信
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case task := <-p.taskQueue:
			p.logFailedTask(ctx, task)
		case task := <-p.retryQueue:
			p.logFailedTask(ctx, task)
		default:
			return
		}
	}
}

// AddTask 入队，队列已满或已停止时直接转入死信
func (p *WorkerPool) AddTask(ctx context.Context, task CleanupTask) {
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logFailedTask(ctx, task)
		return
	}

	select {
	case p.taskQueue <- task:
	default:
		p.log.Warn("cleanup queue full, sending task to dead letter", zap.Stringer("task", task))
		p.logFailedTask(ctx, task)
	}
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-p.taskQueue:
			p.handle(ctx, id, task)
		}
	}
}

func (p *WorkerPool) handle(ctx context.Context, id int, task CleanupTask) {
	err := p.processor.Process(ctx, task)
	if err == nil {
		p.record("done")
		return
	}

	task.Reason = err.Error()
	p.log.Warn("cleanup task failed",
		zap.Int("worker", id),
		zap.Stringer("task", task),
		zap.Error(err),
	)

	// 如果未达到最大重试次数，加入重试队列
	if task.Retry < p.opts.MaxRetry {
		task.Retry++
		select {
		case p.retryQueue <- task:
			p.record("retry")
			return
		default:
			p.log.Warn("retry queue full", zap.Stringer("task", task))
		}
	}
	p.logFailedTask(ctx, task)
}

func (p *WorkerPool) retryWorker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-p.retryQueue:
			// 延迟重试，避免立即重试
			timer := time.NewTimer(time.Duration(task.Retry) * p.opts.RetryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				p.logFailedTask(context.Background(), task)
				return
			case <-timer.C:
			}

			select {
			case p.taskQueue <- task:
			default:
				p.log.Warn("main queue full on retry", zap.Stringer("task", task))
				p.logFailedTask(ctx, task)
			}
		}
	}
}

// logFailedTask 写入死信，由定时清扫重新处理
func (p *WorkerPool) logFailedTask(ctx context.Context, task CleanupTask) {
	p.record("dead")
	if p.deadLetter == nil {
		p.log.Error("cleanup task dropped", zap.Stringer("task", task))
		return
	}
	if err := p.deadLetter.Push(ctx, task); err != nil {
		p.log.Error("failed to persist dead letter task",
			zap.Stringer("task", task),
			zap.Error(err),
		)
	}
}

func (p *WorkerPool) record(result string) {
	if p.metrics != nil {
		p.metrics.RecordCleanupTask(result)
	}
}
