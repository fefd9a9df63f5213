package service

import (
	"context"
	"time"

	"gym-membership-be/internal/dto"
	"gym-membership-be/internal/pkg/logger"
)

type IAdminService interface {
	// System Logs
	GetSystemLogs(ctx context.Context, page, limit int, level string) ([]*dto.LogDetailResponse, error)
}

type adminService struct {
	logger logger.ILogger
}

func NewAdminService(l logger.ILogger) IAdminService {
	return &adminService{logger: l}
}

// GetSystemLogs pages through the rotated application log, newest first.
func (s *adminService) GetSystemLogs(ctx context.Context, page, limit int, level string) ([]*dto.LogDetailResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	logs, err := s.logger.GetLogs(level, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.LogDetailResponse, 0, len(logs))
	for _, l := range logs {
		ts, _ := time.Parse("2006-01-02T15:04:05.000Z0700", l.Timestamp)
		res = append(res, &dto.LogDetailResponse{
			LogListResponse: dto.LogListResponse{
				Id:        l.Id,
				Level:     l.Level,
				Module:    l.Module,
				Message:   l.Message,
				CreatedAt: ts,
			},
			Details: l.Details,
		})
	}
	return res, nil
}
