package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/innovatehub/campaign-mailer/internal/domain"
	"github.com/innovatehub/campaign-mailer/internal/pkg/httputil"
	"github.com/innovatehub/campaign-mailer/internal/pkg/logger"
	"github.com/innovatehub/campaign-mailer/internal/service/campaign"
)

// CampaignRequest is the body of POST /.
type CampaignRequest struct {
	TemplateType   string                 `json:"templateType" validate:"required"`
	Subject        string                 `json:"subject" validate:"required"`
	Recipients     []domain.Recipient     `json:"recipients" validate:"required,min=1"`
	TemplateData   map[string]any         `json:"templateData"`
	SenderName     string                 `json:"senderName"`
	SenderEmail    string                 `json:"senderEmail"`
	ReplyTo        string                 `json:"replyTo"`
	TrackingParams *domain.TrackingParams `json:"trackingParams"`
	ScheduledFor   string                 `json:"scheduledFor"`
}

func (req *CampaignRequest) toCampaign() *domain.Campaign {
	return &domain.Campaign{
		TemplateKind:   domain.TemplateKind(req.TemplateType),
		Subject:        req.Subject,
		Recipients:     req.Recipients,
		TemplateData:   req.TemplateData,
		SenderName:     req.SenderName,
		SenderEmail:    req.SenderEmail,
		ReplyTo:        req.ReplyTo,
		TrackingParams: req.TrackingParams,
		ScheduledFor:   req.ScheduledFor,
	}
}

// ScheduledResponse acknowledges a campaign set for a future time.
type ScheduledResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	ScheduledFor string `json:"scheduledFor"`
}

// DispatchResponse reports an immediate send.
type DispatchResponse struct {
	Success bool                     `json:"success"`
	Results []domain.DeliveryOutcome `json:"results"`
	Sent    int                      `json:"sent"`
	Failed  int                      `json:"failed"`
	Status  domain.DispatchStatus    `json:"status"`
}

// FailureResponse is the 500 body. PartialResults lists the recipients
// handled before the failure.
type FailureResponse struct {
	Error          string                   `json:"error"`
	Details        string                   `json:"details"`
	PartialResults []domain.DeliveryOutcome `json:"partialResults,omitempty"`
}

const (
	msgMissingFields   = "Missing required fields"
	msgScheduled       = "Campaign scheduled"
	msgProcessingError = "Failed to process campaign"
)

// HandleCampaign validates and dispatches a campaign.
//
//	POST /
func (h *Handlers) HandleCampaign(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("campaign handler panic", "panic", rec)
			httputil.JSON(w, http.StatusInternalServerError, FailureResponse{
				Error:   msgProcessingError,
				Details: fmt.Sprint(rec),
			})
		}
	}()

	var req CampaignRequest
	if !httputil.Decode(w, r, &req) {
		return
	}

	if err := h.validate.Struct(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			httputil.ErrorWithDetails(w, http.StatusBadRequest, msgMissingFields, fields)
			return
		}
		httputil.ErrorWithDetails(w, http.StatusBadRequest, msgMissingFields, err.Error())
		return
	}

	result, err := h.dispatcher.Dispatch(r.Context(), req.toCampaign())
	if err != nil {
		logger.Error("campaign dispatch failed", "template_kind", req.TemplateType, "error", err)
		resp := FailureResponse{Error: msgProcessingError, Details: err.Error()}
		var de *campaign.DispatchError
		if errors.As(err, &de) {
			resp.PartialResults = de.Partial
		}
		httputil.JSON(w, http.StatusInternalServerError, resp)
		return
	}

	if result.Scheduled {
		httputil.OK(w, ScheduledResponse{Success: true, Message: msgScheduled, ScheduledFor: result.ScheduledFor})
		return
	}

	httputil.OK(w, DispatchResponse{
		Success: result.Success,
		Results: result.Results,
		Sent:    result.Sent,
		Failed:  result.Failed,
		Status:  result.Status,
	})
}
