package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tourbooking/internal/domain"
	"tourbooking/internal/events"
	"tourbooking/internal/inquiries"
	"tourbooking/internal/metrics"
	"tourbooking/internal/models"
)

var ErrMissingField = errors.New("missing required field")

type InquiryService struct {
	store    domain.InquiryStore
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewInquiryService(store domain.InquiryStore, eventBus domain.EventPublisher, logger *zerolog.Logger) *InquiryService {
	return &InquiryService{
		store:    store,
		eventBus: eventBus,
		logger:   logger,
		now:      time.Now,
	}
}

// Submit stores a new inquiry with status "new".
func (s *InquiryService) Submit(ctx context.Context, sub *models.InquirySubmission) (*models.InquiryRecord, error) {
	if err := checkRequired(sub); err != nil {
		return nil, err
	}

	now := s.now()
	submittedAt := sub.SubmittedAt
	if submittedAt == "" {
		submittedAt = now.UTC().Format(time.RFC3339)
	}

	record := &models.InquiryRecord{
		ID: inquiries.NewID(now),
		Package: models.InquiryPackage{
			ID:       sub.PackageID,
			Name:     sub.PackageName,
			Price:    sub.PackagePrice,
			Dates:    sub.PackageDates,
			Duration: sub.PackageDuration,
		},
		Customer: models.InquiryCustomer{
			FirstName: sub.FirstName,
			LastName:  sub.LastName,
			Email:     sub.Email,
			Phone:     sub.Phone,
			FullName:  sub.FirstName + " " + sub.LastName,
		},
		Travel: models.InquiryTravel{
			NumberOfPeople:         sub.NumberOfPeople,
			PreferredContactMethod: sub.PreferredContactMethod,
			TravelExperience:       sub.TravelExperience,
			SpecialRequirements:    sub.SpecialRequirements,
		},
		Inquiry: models.InquiryDetails{
			Message:     sub.Message,
			HearAboutUs: sub.HearAboutUs,
			SubmittedAt: submittedAt,
			Status:      models.InquiryStatusNew,
		},
	}

	path, err := s.store.Save(ctx, record)
	if err != nil {
		s.logger.Error().Err(err).Msg("Error saving inquiry")
		return nil, err
	}
	metrics.IncInquiry()
	s.logger.Info().Str("inquiry_id", record.ID).Str("file", path).Msg("New inquiry saved")

	if s.eventBus != nil {
		if err := s.eventBus.PublishJSON(events.EventInquiryReceived, record); err != nil {
			s.logger.Error().Err(err).Str("inquiry_id", record.ID).Msg("Failed to publish inquiry event")
		}
	}
	return record, nil
}

// List returns stored inquiries, newest first.
func (s *InquiryService) List(ctx context.Context) ([]models.InquiryRecord, error) {
	return s.store.List(ctx)
}

func checkRequired(sub *models.InquirySubmission) error {
	fields := []struct {
		name  string
		value string
	}{
		{"firstName", sub.FirstName},
		{"lastName", sub.LastName},
		{"email", sub.Email},
		{"phone", sub.Phone},
		{"numberOfPeople", sub.NumberOfPeople},
		{"preferredContactMethod", sub.PreferredContactMethod},
		{"message", sub.Message},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}
	return nil
}
