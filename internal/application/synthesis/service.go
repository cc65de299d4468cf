package synthesis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/cellbyte/backend/internal/domain/catalog"
	"github.com/cellbyte/backend/internal/domain/dataset"
	"github.com/cellbyte/backend/internal/infrastructure/datafile"
	"github.com/cellbyte/backend/internal/infrastructure/log"
)

// AnalysisResult 一次分析请求的结果
type AnalysisResult struct {
	// Summary 人类可读的结果摘要
	Summary string `json:"summary"`
	// Data 结构化结果数据
	Data any `json:"data,omitempty"`
	// Program 最终执行成功的程序
	Program string `json:"program"`
	// Attempts 消耗的合成尝试次数
	Attempts int `json:"attempts"`
}

// PlotResult 一次绘图请求的结果
type PlotResult struct {
	Chart    *Chart `json:"chart"`
	Program  string `json:"program"`
	Attempts int    `json:"attempts"`
}

// AnalyticsService 由模型驱动的数据分析服务
type AnalyticsService struct {
	loop   *Loop
	files  *datafile.Store
	logger *slog.Logger
}

// NewAnalyticsService 创建分析服务
func NewAnalyticsService(loop *Loop, files *datafile.Store) *AnalyticsService {
	return &AnalyticsService{
		loop:   loop,
		files:  files,
		logger: log.NewModuleLogger("synthesis", "analytics"),
	}
}

// Run 针对指定文件执行自然语言分析请求
func (s *AnalyticsService) Run(ctx context.Context, filename, query string) (*AnalysisResult, error) {
	frame, info, err := s.loadFrame(filename)
	if err != nil {
		return nil, err
	}

	exec, err := NewAnalysisExecutor(frame)
	if err != nil {
		return nil, err
	}

	seed := buildAnalysisSeed(frameContext(frame, info), query)
	result, err := s.loop.Run(ctx, seed, exec)
	if err != nil {
		return nil, err
	}

	resultMap := result.Value.(map[string]any)
	summary, _ := resultMap["summary"].(string)

	s.logger.Info("Analysis completed",
		"file", filename,
		"attempts", result.Attempts,
	)

	return &AnalysisResult{
		Summary:  summary,
		Data:     resultMap["data"],
		Program:  result.Program,
		Attempts: result.Attempts,
	}, nil
}

// Describe 数值列描述性统计（不经过模型）
func (s *AnalyticsService) Describe(filename string) (map[string]map[string]float64, error) {
	frame, _, err := s.loadFrame(filename)
	if err != nil {
		return nil, err
	}
	return QuickDescribe(frame), nil
}

// Correlation 数值列相关系数矩阵（不经过模型）
func (s *AnalyticsService) Correlation(filename string) (map[string]map[string]float64, error) {
	frame, _, err := s.loadFrame(filename)
	if err != nil {
		return nil, err
	}
	return QuickCorrelation(frame), nil
}

// ValueCounts 某列取值计数（不经过模型）
func (s *AnalyticsService) ValueCounts(filename, column string) (map[string]int, error) {
	frame, _, err := s.loadFrame(filename)
	if err != nil {
		return nil, err
	}
	return QuickValueCounts(frame, column)
}

// loadFrame 加载数据集，文件缺失映射为目录的未找到错误
func (s *AnalyticsService) loadFrame(filename string) (*dataset.Frame, *datafile.FileInfo, error) {
	frame, info, err := s.files.Load(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("dataset %q: %w", filename, catalog.ErrFileNotFound)
		}
		return nil, nil, err
	}
	return frame, info, nil
}

// PlotService 由模型驱动的图表生成服务
type PlotService struct {
	loop   *Loop
	files  *datafile.Store
	logger *slog.Logger
}

// NewPlotService 创建绘图服务
func NewPlotService(loop *Loop, files *datafile.Store) *PlotService {
	return &PlotService{
		loop:   loop,
		files:  files,
		logger: log.NewModuleLogger("synthesis", "plots"),
	}
}

// Run 针对指定文件执行自然语言绘图请求
func (s *PlotService) Run(ctx context.Context, filename, query string) (*PlotResult, error) {
	frame, info, err := s.files.Load(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("dataset %q: %w", filename, catalog.ErrFileNotFound)
		}
		return nil, err
	}

	exec, err := NewChartExecutor(frame)
	if err != nil {
		return nil, err
	}

	seed := buildChartSeed(frameContext(frame, info), query)
	result, err := s.loop.Run(ctx, seed, exec)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Plot completed",
		"file", filename,
		"attempts", result.Attempts,
	)

	return &PlotResult{
		Chart:    result.Value.(*Chart),
		Program:  result.Program,
		Attempts: result.Attempts,
	}, nil
}

// frameContext 渲染数据集上下文文本
func frameContext(frame *dataset.Frame, info *datafile.FileInfo) string {
	dctx := dataset.BuildContext(frame)
	if info != nil {
		dctx.FileType = info.Type
		dctx.Delimiter = info.Delimiter
	}
	return dctx.FormatForPrompt()
}
