package validators

import "go.mongodb.org/mongo-driver/bson"

var TutorValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"first_name",
			"last_name",
			"email",
			"institution",
			"description",
			"category",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"first_name": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 50,
			},

			"last_name": bson.M{
				"bsonType":  "string",
				"minLength": 3,
				"maxLength": 50,
			},

			"email": bson.M{
				"bsonType": "string",
				"pattern":  "^[^@\\s]+@[^@\\s]+\\.[^@\\s]+$",
			},

			"institution": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"semester": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  20,
			},

			"description": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 2000,
			},

			"category": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"gpa": bson.M{
				"bsonType": []string{"double", "int"},
				"minimum":  0,
				"maximum":  5,
			},

			"image_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
