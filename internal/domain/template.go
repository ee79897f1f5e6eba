package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutTemplate is a reusable workout definition created by a coach.
// Its name and description feed the payload of the mirrored calendar event.
type WorkoutTemplate struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedBy       primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	Name            string             `bson:"name" json:"name"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	DurationMinutes int                `bson:"durationMinutes,omitempty" json:"durationMinutes,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}
