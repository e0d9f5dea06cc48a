package loop

import (
	"context"

	"github.com/Cyclone1070/lumen/internal/provider/model"
	"github.com/Cyclone1070/lumen/internal/tool"
)

// modelClient performs one model call.
type modelClient interface {
	Generate(ctx context.Context, req *model.Request) (*model.Response, error)
}

// toolRegistry is the only side-effect boundary for tool work.
type toolRegistry interface {
	Declarations() []tool.Declaration
	Execute(ctx context.Context, name, arguments string) (string, error)
}

// usageRecorder accumulates token counts per model.
type usageRecorder interface {
	Record(modelID string, usage model.Usage)
}
