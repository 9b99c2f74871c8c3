// Package stream provides DynamoDB Streams handlers that keep the
// organization forest consistent after out-of-band writes.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/canopy/hierarchy"
)

// Releveler re-derives the levels below a node. *hierarchy.Engine
// implements it.
type Releveler interface {
	Relevel(ctx context.Context, id string) (hierarchy.Result, error)
	ChildrenStale(ctx context.Context, id string, level int) (bool, error)
}

// Handler processes organization table stream events.
type Handler struct {
	engine Releveler
	table  string
	logger *slog.Logger
}

// NewHandler creates a new stream handler. Records from tables other than
// table are ignored; an empty table accepts every record.
func NewHandler(engine Releveler, table string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		engine: engine,
		table:  table,
		logger: logger,
	}
}

// HandleLevelChanges processes DynamoDB stream events and cascades level
// changes to the descendants of every node whose parent or level changed.
// This function is designed to be used as an AWS Lambda handler.
//
// A change of level alone is what the engine's own cascade writes look
// like. Those records only trigger a relevel when a direct child disagrees
// with the new level.
func (h *Handler) HandleLevelChanges(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

// processRecord processes a single DynamoDB stream record.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	if record.EventName != "INSERT" && record.EventName != "MODIFY" {
		return nil
	}
	if h.table != "" {
		if table := tableFromARN(record.EventSourceArn); table != "" && table != h.table {
			return nil
		}
	}

	oldImage, newImage := record.Change.OldImage, record.Change.NewImage
	oldParent := getStringAttr(oldImage, "parent_id")
	newParent := getStringAttr(newImage, "parent_id")
	oldLevel, hadLevel := getNumberAttr(oldImage, "level")
	newLevel, hasLevel := getNumberAttr(newImage, "level")

	levelOnly := record.EventName == "MODIFY" && hadLevel && oldParent == newParent
	if levelOnly && oldLevel == newLevel {
		return nil
	}

	id := getStringAttr(newImage, "id")
	if id == "" {
		id = getStringAttr(record.Change.Keys, "id")
	}
	if id == "" {
		return fmt.Errorf("record %s has no id", record.EventID)
	}

	if levelOnly && hasLevel {
		stale, err := h.engine.ChildrenStale(ctx, id, int(newLevel))
		if err != nil {
			return fmt.Errorf("check children of %s: %w", id, err)
		}
		if !stale {
			h.logger.Debug("children already consistent", "id", id, "level", newLevel)
			return nil
		}
	}

	h.logger.Info("processing level change",
		"id", id,
		"oldParent", oldParent,
		"newParent", newParent,
		"oldLevel", oldLevel,
		"newLevel", newLevel,
	)

	res, err := h.engine.Relevel(ctx, id)
	if errors.Is(err, hierarchy.ErrNotFound) {
		// Deleted again before the stream caught up.
		h.logger.Info("node no longer exists", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("relevel %s: %w", id, err)
	}

	h.logger.Info("level change completed",
		"id", id,
		"updated", len(res.Changed),
	)

	return nil
}

// tableFromARN extracts the table name from a stream ARN of the form
// arn:aws:dynamodb:region:account:table/NAME/stream/LABEL.
func tableFromARN(arn string) string {
	_, rest, ok := strings.Cut(arn, ":table/")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(rest, "/")
	return name
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

// getNumberAttr extracts a number attribute from a DynamoDB stream image.
func getNumberAttr(image map[string]events.DynamoDBAttributeValue, key string) (int64, bool) {
	if v, ok := image[key]; ok {
		if v.DataType() == events.DataTypeNumber {
			n, err := strconv.ParseInt(v.Number(), 10, 64)
			return n, err == nil
		}
	}
	return 0, false
}
