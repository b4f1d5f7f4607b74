package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/startzen/pkg/model"
)

func sampleSlides() []model.Slide {
	return []model.Slide{
		{Title: "Acme AI", Content: "Power for every block", Type: model.SlideTypeTitle},
		{Title: "The Problem", Content: "Grids are brittle", Type: model.SlideTypeProblem, BulletPoints: []string{"Outages", "Waste"}},
		{Title: "The Solution", Content: "Micro-grids", Type: model.SlideTypeSolution, BulletPoints: []string{}},
		{Title: "Market", Content: "Cities", Type: model.SlideTypeMarket},
		{Title: "Model", Content: "SaaS", Type: model.SlideTypeTeam},
		{Title: "Vision", Content: "Raise $2M", Type: model.SlideTypeAsk},
	}
}

func TestPitchRecordRoundTrip(t *testing.T) {
	req := model.PitchRequest{StartupName: "Acme AI", MainTheme: "Sustainable urban energy"}
	slides := sampleSlides()

	record, err := model.NewPitchRecord("user-1", req, slides)
	gt.NoError(t, err)
	gt.Equal(t, record.ID, model.RecordID(""))
	gt.Equal(t, record.UserID, model.UserID("user-1"))
	gt.Equal(t, record.StartupName, "Acme AI")
	gt.Equal(t, record.Industry, model.Industry)
	gt.True(t, record.CreatedAt.IsZero())

	gotReq, gotSlides, err := record.Decode()
	gt.NoError(t, err)
	gt.Equal(t, gotReq, req)
	gt.Equal(t, gotSlides, slides)
}

func TestPitchRecordDecodeBroken(t *testing.T) {
	record := &model.PitchRecord{ID: "r1", Details: "{", Slides: "[]"}
	_, _, err := record.Decode()
	gt.Error(t, err)

	record = &model.PitchRecord{ID: "r2", Details: `{"startupName":"a","mainTheme":"b"}`, Slides: "not json"}
	_, _, err = record.Decode()
	gt.Error(t, err)
}

func TestNewRecordIDUnique(t *testing.T) {
	gt.V(t, model.NewRecordID()).NotEqual(model.NewRecordID())
}
