package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Campus Club Portal API",
        "description": "Club event registration and recruitment application backend",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Auth", "description": "Registration, login and token lifecycle"},
        {"name": "Clubs", "description": "Club directory and profiles"},
        {"name": "Events", "description": "Event discovery and management"},
        {"name": "Registrations", "description": "Event registrations"},
        {"name": "Recruitments", "description": "Recruitment drives"},
        {"name": "Applications", "description": "Recruitment applications and review"},
        {"name": "Admin", "description": "Club dashboard statistics"},
        {"name": "Exports", "description": "Asynchronous roster exports"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Auth"],
                "summary": "Register a new account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Log in with email and password",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Auth"],
                "summary": "Rotate a refresh token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RefreshRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Expired or revoked token"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "Revoke a refresh token",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current user profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/clubs": {
            "get": {
                "tags": ["Clubs"],
                "summary": "List clubs",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/clubs/{clubName}": {
            "get": {
                "tags": ["Clubs"],
                "summary": "Club profile with upcoming and past events",
                "parameters": [
                    {"name": "clubName", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown club"}
                }
            },
            "put": {
                "tags": ["Clubs"],
                "summary": "Update the club profile",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "clubName", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateClubProfileRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Not this club's admin"}
                }
            }
        },
        "/events": {
            "get": {
                "tags": ["Events"],
                "summary": "List events",
                "parameters": [
                    {"name": "club", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Events"],
                "summary": "Create an event",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateEventRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/club/{clubName}": {
            "get": {
                "tags": ["Events"],
                "summary": "List events for a club",
                "parameters": [
                    {"name": "clubName", "in": "path", "required": true, "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown club", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events/{eventId}": {
            "get": {
                "tags": ["Events"],
                "summary": "Event detail",
                "parameters": [
                    {"name": "eventId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Events"],
                "summary": "Update an event",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "eventId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateEventRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Events"],
                "summary": "Deactivate an event",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "eventId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/events/{eventId}/registrations": {
            "post": {
                "tags": ["Registrations"],
                "summary": "Register for an event",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "eventId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/EventRegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Full, past deadline or already registered"}
                }
            },
            "delete": {
                "tags": ["Registrations"],
                "summary": "Cancel my registration",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "eventId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Cancelled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Event already occurred"},
                    "404": {"description": "No live registration"}
                }
            },
            "get": {
                "tags": ["Registrations"],
                "summary": "List an event's roster",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "eventId", "in": "path", "required": true, "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Event belongs to another club"}
                }
            }
        },
        "/registrations/my": {
            "get": {
                "tags": ["Registrations"],
                "summary": "List my registrations",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/recruitments": {
            "get": {
                "tags": ["Recruitments"],
                "summary": "List recruitment drives",
                "parameters": [
                    {"name": "club", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Recruitments"],
                "summary": "Create a recruitment drive",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateRecruitmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/recruitments/club/{clubName}": {
            "get": {
                "tags": ["Recruitments"],
                "summary": "List recruitment drives for a club",
                "parameters": [
                    {"name": "clubName", "in": "path", "required": true, "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown club", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/recruitments/{recruitmentId}": {
            "get": {
                "tags": ["Recruitments"],
                "summary": "Recruitment detail",
                "parameters": [
                    {"name": "recruitmentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Recruitments"],
                "summary": "Update a recruitment drive",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "recruitmentId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateRecruitmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Recruitments"],
                "summary": "Close a recruitment drive",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "recruitmentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/recruitments/{recruitmentId}/applications": {
            "post": {
                "tags": ["Applications"],
                "summary": "Apply to a recruitment drive",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "recruitmentId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ApplyRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Closed, duplicate or invalid answers"}
                }
            },
            "get": {
                "tags": ["Applications"],
                "summary": "List a drive's applications",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "recruitmentId", "in": "path", "required": true, "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Drive belongs to another club"}
                }
            }
        },
        "/applications/my": {
            "get": {
                "tags": ["Applications"],
                "summary": "List my applications",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/applications/{applicationId}/status": {
            "patch": {
                "tags": ["Applications"],
                "summary": "Review an application",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "applicationId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Status transition not allowed"}
                }
            }
        },
        "/admin/stats": {
            "get": {
                "tags": ["Admin"],
                "summary": "Dashboard statistics for the admin's club",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Request a roster export",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "get": {
                "tags": ["Exports"],
                "summary": "List my club's export jobs",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{jobId}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export job status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "jobId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/exports/download/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "produces": ["text/csv", "application/pdf"],
                "responses": {
                    "200": {"description": "File stream"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "RegisterRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string", "enum": ["student", "club_admin"]},
                "roll_number": {"type": "string"},
                "department": {"type": "string"},
                "club_name": {"type": "string"}
            },
            "required": ["name", "email", "password", "role"]
        },
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "RefreshRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            },
            "required": ["refresh_token"]
        },
        "UpdateClubProfileRequest": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "logo": {"type": "string"},
                "website": {"type": "string"},
                "popular_people": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ClubPerson"}
                }
            }
        },
        "ClubPerson": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "role": {"type": "string"},
                "image": {"type": "string"}
            }
        },
        "CreateEventRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "date": {"type": "string", "format": "date-time"},
                "time": {"type": "string"},
                "venue": {"type": "string"},
                "event_type": {"type": "string"},
                "image": {"type": "string"},
                "max_participants": {"type": "integer"},
                "registration_deadline": {"type": "string", "format": "date-time"},
                "tags": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["title", "date", "venue", "event_type"]
        },
        "EventRegisterRequest": {
            "type": "object",
            "properties": {
                "phone": {"type": "string"},
                "additional_info": {"type": "string"}
            }
        },
        "CreateRecruitmentRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "positions": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/Position"}
                },
                "eligibility": {"type": "string"},
                "application_deadline": {"type": "string", "format": "date-time"},
                "application_process": {"type": "string"},
                "tags": {"type": "array", "items": {"type": "string"}},
                "questions": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/Question"}
                }
            },
            "required": ["title", "positions", "application_deadline"]
        },
        "Position": {
            "type": "object",
            "properties": {
                "role": {"type": "string"},
                "count": {"type": "integer"},
                "requirements": {"type": "string"}
            }
        },
        "Question": {
            "type": "object",
            "properties": {
                "question_text": {"type": "string"},
                "field_type": {"type": "string", "enum": ["short_text", "long_text", "url", "number", "select", "multiselect"]},
                "required": {"type": "boolean"},
                "options": {"type": "array", "items": {"type": "string"}}
            }
        },
        "ApplyRequest": {
            "type": "object",
            "properties": {
                "phone": {"type": "string"},
                "applied_position": {"type": "string"},
                "experience": {"type": "string"},
                "skills": {"type": "string"},
                "why_join": {"type": "string"},
                "portfolio": {"type": "string"},
                "resume": {"type": "string"},
                "answers": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/QuestionAnswer"}
                }
            },
            "required": ["applied_position", "why_join"]
        },
        "QuestionAnswer": {
            "type": "object",
            "properties": {
                "question_text": {"type": "string"},
                "answer": {"type": "object"}
            }
        },
        "ReviewRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["applied", "under_review", "shortlisted", "selected", "rejected"]},
                "interview_date": {"type": "string", "format": "date-time"},
                "feedback": {"type": "string"}
            },
            "required": ["status"]
        },
        "ExportRequest": {
            "type": "object",
            "properties": {
                "kind": {"type": "string", "enum": ["registrations", "applications"]},
                "target_id": {"type": "string"},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
            },
            "required": ["kind", "target_id", "format"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
