package validators

import "go.mongodb.org/mongo-driver/bson"

var ReviewValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"student_id",
			"class_id",
			"tutor_id",
			"comment",
			"stars",
			"date",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"student_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"class_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"tutor_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"comment": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 2000,
			},

			"stars": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  5,
			},

			"date": bson.M{
				"bsonType": "date",
			},
		},
	},
}
