package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/LJTian/SecNewsHub/internal/collector"
	"github.com/LJTian/SecNewsHub/internal/processor"
)

// Ingester 抓取所有 feed 源并补全正文
type Ingester interface {
	IngestAll(ctx context.Context, sources []collector.Source) ([]collector.Article, error)
}

// Sink 聚合结果的落地位置
type Sink interface {
	Name() string
	Save(ctx context.Context, news processor.AggregatedNews) error
}

// Pipeline 串起三个阶段：ingest -> aggregate -> persist。
// 各阶段可以单独调用；整个流程是串行的。
type Pipeline struct {
	sources  []collector.Source
	ingester Ingester
	output   Sink
	mirrors  []Sink
}

// New output 是本次运行的主产物，写失败即运行失败；mirrors 失败只记录日志
func New(sources []collector.Source, ingester Ingester, output Sink, mirrors ...Sink) *Pipeline {
	return &Pipeline{
		sources:  sources,
		ingester: ingester,
		output:   output,
		mirrors:  mirrors,
	}
}

// Ingest 单个源失败不会中断，只记录日志
func (p *Pipeline) Ingest(ctx context.Context) []collector.Article {
	articles, err := p.ingester.IngestAll(ctx, p.sources)
	if err != nil {
		log.Printf("warn: some feeds skipped: %v", err)
	}
	return articles
}

// Persist 写主输出，再写各个镜像
func (p *Pipeline) Persist(ctx context.Context, news processor.AggregatedNews) error {
	if err := p.output.Save(ctx, news); err != nil {
		return fmt.Errorf("persist %s: %w", p.output.Name(), err)
	}
	for _, m := range p.mirrors {
		if err := m.Save(ctx, news); err != nil {
			log.Printf("warn: persist %s: %v", m.Name(), err)
		}
	}
	return nil
}

// Run 完整执行一轮
func (p *Pipeline) Run(ctx context.Context) (processor.AggregatedNews, error) {
	log.Println("start collect job...")

	articles := p.Ingest(ctx)
	news := processor.Aggregate(articles)
	if err := p.Persist(ctx, news); err != nil {
		return news, err
	}

	log.Printf("collect job done, fetched=%d aggregated=%d dates=%d", len(articles), news.Len(), len(news.Dates()))
	return news, nil
}
