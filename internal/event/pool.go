package event

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Pool 固定大小的异步分发协程池。队列满时丢弃任务而不是阻塞发布方。
type Pool struct {
	logger *zap.Logger
	taskCh chan func()
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewPool 创建并启动协程池
func NewPool(workers, queueSize int, logger *zap.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	p := &Pool{
		logger: logger,
		taskCh: make(chan func(), queueSize),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	logger.Debug("event pool started",
		zap.Int("workers", workers),
		zap.Int("queue_size", queueSize))
	return p
}

// Submit 提交任务。池已关闭返回 ErrPoolClosed，队列已满返回 ErrQueueFull。
func (p *Pool) Submit(task func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.taskCh <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close 停止接收新任务并等待已入队任务执行完毕
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.taskCh)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for task := range p.taskCh {
		p.run(id, task)
	}
}

func (p *Pool) run(id int, task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("async task panicked",
				zap.Int("worker_id", id),
				zap.Error(fmt.Errorf("%w: %v", ErrListenerPanic, r)))
		}
	}()
	task()
}
