// internal/workers/analytics/lead-analytics/handler.go
package leadanalytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"leadauction-workers/internal/common/errors"
	"leadauction-workers/internal/common/logger"
	"leadauction-workers/internal/common/metrics"
	"leadauction-workers/internal/engine"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "lead-analytics"

type Handler struct {
	config *Config
	engine *engine.Engine
	errors *errors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, eng *engine.Engine, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		engine: eng,
		errors: errors.NewErrorHandler(log),
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.ErrCodeValidationFailed)).Inc()
		h.errors.HandleJobError(context.Background(), client, job,
			errors.NewValidationFailedError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.CodeOf(err))).Inc()
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ApplicationID == "" && input.BidderID == "" {
		return nil, errors.NewValidationFailedError("applicationId or bidderId is required")
	}

	output := &Output{}

	if input.ApplicationID != "" {
		lead, err := h.engine.ApplicationMetrics(ctx, input.ApplicationID)
		if err != nil {
			return nil, err
		}
		out := &LeadMetricsOutput{
			ApplicationID:        lead.ApplicationID,
			Status:               string(lead.Status),
			AuctionWindowSeconds: lead.AuctionWindow.Seconds(),
			OfferCount:           lead.OfferCount,
			DistinctViewers:      lead.DistinctViewers,
		}
		if lead.TimeToFirstOffer != nil {
			s := lead.TimeToFirstOffer.Seconds()
			out.TimeToFirstOfferSeconds = &s
		}
		if lead.TimeToCompletion != nil {
			s := lead.TimeToCompletion.Seconds()
			out.TimeToCompletionSeconds = &s
		}
		output.Lead = out
	}

	if input.BidderID != "" {
		rate, err := h.engine.BidderConversion(ctx, input.BidderID)
		if err != nil {
			return nil, err
		}
		output.Bidder = &BidderConversionOutput{
			BidderID:       input.BidderID,
			ConversionRate: rate,
		}
	}

	return output, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	h.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey": job.Key,
	})
}
