package services

import (
	"log"
	"sync"
)

// WorkerPool 固定大小的文件处理工作池
type WorkerPool struct {
	workers  int
	handler  func(path string)
	taskChan chan string
	wg       sync.WaitGroup
}

// NewWorkerPool 创建工作池,handler 在工作协程中被并发调用
func NewWorkerPool(workers int, handler func(path string)) *WorkerPool {
	return &WorkerPool{
		workers:  workers,
		handler:  handler,
		taskChan: make(chan string, workers*2),
	}
}

// Start 启动工作协程
func (p *WorkerPool) Start() {
	log.Printf("🚀 启动工作池: %d 个工作协程", p.workers)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Submit 提交任务,队列满时阻塞(导入不丢文件)
func (p *WorkerPool) Submit(path string) {
	p.taskChan <- path
}

// Stop 关闭任务队列并等待所有在途任务完成
func (p *WorkerPool) Stop() {
	close(p.taskChan)
	p.wg.Wait()
}

func (p *WorkerPool) worker() {
	defer p.wg.Done()
	for path := range p.taskChan {
		p.handler(path)
	}
}
