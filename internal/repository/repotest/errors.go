package repotest

import "gorm.io/gorm"

// errDuplicate mirrors what the unique index on reference_points.building_id reports.
var errDuplicate = gorm.ErrDuplicatedKey
