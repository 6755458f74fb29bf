package pipeline

import "github.com/deploymenttheory/xfs-undelete/internal/recovererr"

var errInvalidExtent = recovererr.New(recovererr.InvalidRange, "pipeline.Analyzer.validate", nil)
