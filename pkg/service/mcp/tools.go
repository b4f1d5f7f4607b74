package mcp

import (
	"bytes"
	"context"
	"errors"

	"github.com/m-mizutani/startzen/pkg/model"
	"github.com/m-mizutani/startzen/pkg/render"
	"github.com/m-mizutani/startzen/pkg/utils/logging"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	toolGenerate    = "generate_pitch_deck"
	toolListHistory = "list_pitch_history"
	toolGetPitch    = "get_pitch"
)

type generateParams struct {
	StartupName string `json:"startup_name" jsonschema:"Name of the startup"`
	MainTheme   string `json:"main_theme" jsonschema:"Core vision or theme of the startup"`
}

type getPitchParams struct {
	RecordID string `json:"record_id" jsonschema:"Record ID of a saved pitch deck"`
}

type deckOutput struct {
	StartupName string        `json:"startup_name"`
	Slides      []model.Slide `json:"slides"`
}

type historyOutput struct {
	Records []historyEntry `json:"records"`
}

type historyEntry struct {
	ID          model.RecordID `json:"id"`
	StartupName string         `json:"startup_name"`
	CreatedAt   string         `json:"created_at"`
}

func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}

func feedResult(startupName string, slides []model.Slide) (*mcp.CallToolResult, error) {
	enc, err := render.NewEncoder(render.FormatText)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := enc.Encode(&buf, render.NewFeed(startupName, slides)); err != nil {
		return nil, err
	}

	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: buf.String()}},
		StructuredContent: deckOutput{StartupName: startupName, Slides: slides},
	}, nil
}

func (s *Server) generatePitchDeck(ctx context.Context, req *mcp.CallToolRequest, params *generateParams) (*mcp.CallToolResult, any, error) {
	pitchReq := model.PitchRequest{StartupName: params.StartupName, MainTheme: params.MainTheme}
	if err := s.studio.Generate(ctx, pitchReq); err != nil {
		logging.From(ctx).Warn("MCP generation failed", logging.ErrAttr(err))
		if errors.Is(err, model.ErrIncompleteRequest) {
			return toolError("startup_name and main_theme are required"), nil, nil
		}
		if st := s.studio.Snapshot(); st.Notice != nil {
			return toolError(st.Notice.Message), nil, nil
		}
		return toolError("Failed to generate pitch deck. Please try again."), nil, nil
	}

	st := s.studio.Snapshot()
	result, err := feedResult(st.StartupName(), st.Slides)
	return result, nil, err
}

func (s *Server) listPitchHistory(ctx context.Context, req *mcp.CallToolRequest, params *struct{}) (*mcp.CallToolResult, any, error) {
	s.studio.RefreshHistory(ctx)
	history := s.studio.Snapshot().History

	var buf bytes.Buffer
	if err := render.WriteHistory(&buf, history); err != nil {
		return nil, nil, err
	}

	out := historyOutput{Records: make([]historyEntry, 0, len(history))}
	for _, r := range history {
		out.Records = append(out.Records, historyEntry{
			ID:          r.ID,
			StartupName: r.StartupName,
			CreatedAt:   r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	return &mcp.CallToolResult{
		Content:           []mcp.Content{&mcp.TextContent{Text: buf.String()}},
		StructuredContent: out,
	}, nil, nil
}

func (s *Server) getPitch(ctx context.Context, req *mcp.CallToolRequest, params *getPitchParams) (*mcp.CallToolResult, any, error) {
	record, err := s.records.GetRecord(ctx, model.RecordID(params.RecordID))
	if errors.Is(err, model.ErrRecordNotFound) || (err == nil && record.UserID != s.user.ID) {
		return toolError("pitch deck not found: " + params.RecordID), nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	pitchReq, slides, err := record.Decode()
	if err != nil {
		return nil, nil, err
	}
	result, err := feedResult(pitchReq.StartupName, slides)
	return result, nil, err
}
