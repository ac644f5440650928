package mode

import (
	"context"

	"github.com/khaledhikmat/proctor-go/model"
	"github.com/khaledhikmat/proctor-go/pipeline"
)

type Processor func(canxCtx context.Context, svcs pipeline.ServicesFactory, session model.Session) error
