package service

import (
	"context"
	"path"
	"strings"

	"repair_backend/internal/pricing"
	"repair_backend/internal/repairs/domain"
	"repair_backend/internal/repairs/transport"
	"repair_backend/platform/apperr"
	"repair_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Quote returns a price range without persisting anything.
func (s *Service) Quote(q transport.EstimateQuery) transport.EstimateResponse {
	return estimateResponse(s.costs.Calculate(q.DeviceType, q.IssueType))
}

// Estimate prices the repair for issueType, stores the estimate and sets the
// request's estimated cost to the upper bound of the range.
func (s *Service) Estimate(ctx context.Context, id, userID uuid.UUID, req transport.EstimateRequest) (transport.EstimateResponse, error) {
	repair, err := s.loadOwned(ctx, id, userID)
	if err != nil {
		return transport.EstimateResponse{}, err
	}
	if repair.Status.IsTerminal() {
		return transport.EstimateResponse{}, apperr.InvalidState("repair request is closed")
	}

	calc := s.costs.Calculate(repair.Device.Type, req.IssueType)
	est := domain.Estimate{
		ID:              uuid.New(),
		RepairRequestID: repair.ID,
		DeviceType:      calc.DeviceType,
		IssueType:       calc.IssueType,
		MinCost:         calc.Min,
		MaxCost:         calc.Max,
		Currency:        calc.Currency,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.repo.CreateEstimate(ctx, est); err != nil {
		return transport.EstimateResponse{}, err
	}
	return storedEstimateResponse(est), nil
}

// ListEstimates returns the estimates of a visible repair request.
func (s *Service) ListEstimates(ctx context.Context, id, userID uuid.UUID) ([]transport.EstimateResponse, error) {
	if _, err := s.loadVisible(ctx, id, userID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListEstimates(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]transport.EstimateResponse, 0, len(items))
	for _, e := range items {
		out = append(out, storedEstimateResponse(e))
	}
	return out, nil
}

// PhotosEnabled reports whether photo storage is configured.
func (s *Service) PhotosEnabled() bool {
	return s.storage != nil
}

// CreatePhotoUpload registers a photo and returns a presigned PUT URL for it.
func (s *Service) CreatePhotoUpload(ctx context.Context, id, userID uuid.UUID, req transport.PhotoUploadRequest) (transport.PhotoUploadResponse, error) {
	if s.storage == nil {
		return transport.PhotoUploadResponse{}, apperr.Internal("photo storage is not configured")
	}
	repair, err := s.loadOwned(ctx, id, userID)
	if err != nil {
		return transport.PhotoUploadResponse{}, err
	}
	if repair.Status.IsTerminal() {
		return transport.PhotoUploadResponse{}, apperr.InvalidState("repair request is closed")
	}

	fileName := sanitize.Text(path.Base(strings.ReplaceAll(req.FileName, "\\", "/")))
	if fileName == "" || fileName == "." || fileName == "/" {
		return transport.PhotoUploadResponse{}, apperr.Validation("file name is required")
	}

	presigned, err := s.storage.GenerateUploadURL(ctx, s.bucket, path.Join(photoFolder, repair.ID.String()), fileName, req.ContentType, req.SizeBytes)
	if err != nil {
		return transport.PhotoUploadResponse{}, err
	}

	photo := domain.Photo{
		ID:              uuid.New(),
		RepairRequestID: repair.ID,
		FileKey:         presigned.FileKey,
		FileName:        fileName,
		ContentType:     req.ContentType,
		SizeBytes:       req.SizeBytes,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.repo.CreatePhoto(ctx, photo); err != nil {
		return transport.PhotoUploadResponse{}, err
	}

	return transport.PhotoUploadResponse{
		Photo:     photoResponse(photo, ""),
		UploadURL: presigned.URL,
		ExpiresAt: presigned.ExpiresAt,
	}, nil
}

// ListPhotos returns the photos of a visible repair with download URLs.
func (s *Service) ListPhotos(ctx context.Context, id, userID uuid.UUID) ([]transport.PhotoResponse, error) {
	if s.storage == nil {
		return nil, apperr.Internal("photo storage is not configured")
	}
	if _, err := s.loadVisible(ctx, id, userID); err != nil {
		return nil, err
	}
	photos, err := s.repo.ListPhotos(ctx, id)
	if err != nil {
		return nil, err
	}

	out := make([]transport.PhotoResponse, 0, len(photos))
	for _, p := range photos {
		download, err := s.storage.GenerateDownloadURL(ctx, s.bucket, p.FileKey)
		if err != nil {
			return nil, err
		}
		out = append(out, photoResponse(p, download.URL))
	}
	return out, nil
}

func (s *Service) loadOwned(ctx context.Context, id, userID uuid.UUID) (domain.RepairRequest, error) {
	repair, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.RepairRequest{}, err
	}
	if !repair.OwnedBy(userID) {
		return domain.RepairRequest{}, apperr.Unauthorized("repair request belongs to another user")
	}
	return repair, nil
}

func estimateResponse(e pricing.Estimate) transport.EstimateResponse {
	return transport.EstimateResponse{
		DeviceType: e.DeviceType,
		IssueType:  e.IssueType,
		MinCost:    e.Min,
		MaxCost:    e.Max,
		Currency:   e.Currency,
	}
}

func storedEstimateResponse(e domain.Estimate) transport.EstimateResponse {
	id, repairID, created := e.ID, e.RepairRequestID, e.CreatedAt
	return transport.EstimateResponse{
		ID:              &id,
		RepairRequestID: &repairID,
		DeviceType:      e.DeviceType,
		IssueType:       e.IssueType,
		MinCost:         e.MinCost,
		MaxCost:         e.MaxCost,
		Currency:        e.Currency,
		CreatedAt:       &created,
	}
}

func photoResponse(p domain.Photo, downloadURL string) transport.PhotoResponse {
	return transport.PhotoResponse{
		ID:          p.ID,
		FileName:    p.FileName,
		ContentType: p.ContentType,
		SizeBytes:   p.SizeBytes,
		CreatedAt:   p.CreatedAt,
		DownloadURL: downloadURL,
	}
}
