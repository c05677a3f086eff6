// Package docs 管理接口的 OpenAPI 文档.
//
// 内容与 handle 包中的 swag 注解一致，可用 swag init -g cmd/filerelay/main.go -o docs 重新生成.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "yeisme"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/license/mit/"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/files": {
            "get": {
                "description": "按上传顺序返回最近的 limit 条记录，可按上传者过滤",
                "produces": ["application/json"],
                "tags": ["文件"],
                "summary": "文件列表",
                "parameters": [
                    {"type": "integer", "description": "上传者 Telegram ID", "name": "uploader", "in": "query"},
                    {"type": "integer", "description": "返回条数，默认 100，最大 1000", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ListFilesResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/files/import": {
            "post": {
                "description": "请求体为本地日志镜像或 Telegram Desktop 导出的 result.json，已存在的 id 跳过，校验失败的记录计为 invalid",
                "consumes": ["text/plain", "application/json"],
                "produces": ["application/json"],
                "tags": ["文件"],
                "summary": "从日志镜像导入",
                "parameters": [
                    {"type": "string", "description": "只恢复该 8 位短标识", "name": "id", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ImportResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "413": {"description": "Request Entity Too Large", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/files/{id}": {
            "get": {
                "description": "查询单个文件，不计入下载次数",
                "produces": ["application/json"],
                "tags": ["文件"],
                "summary": "文件详情",
                "parameters": [
                    {"type": "string", "description": "8 位小写十六进制短标识", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.FileItem"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/users/{uid}/files": {
            "get": {
                "produces": ["application/json"],
                "tags": ["文件"],
                "summary": "用户上传的文件",
                "parameters": [
                    {"type": "integer", "description": "Telegram 用户 ID", "name": "uid", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ListFilesResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["统计"],
                "summary": "全局统计",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.GlobalStats"}}
                }
            }
        },
        "/stats/users/{uid}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["统计"],
                "summary": "用户统计",
                "parameters": [
                    {"type": "integer", "description": "Telegram 用户 ID", "name": "uid", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.UserStats"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/templates": {
            "get": {
                "produces": ["application/json"],
                "tags": ["模板"],
                "summary": "消息模板列表",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "properties": {"templates": {"type": "array", "items": {"$ref": "#/definitions/types.TemplateItem"}}}}}
                }
            }
        },
        "/templates/{key}": {
            "put": {
                "description": "更新后立即生效",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["模板"],
                "summary": "更新消息模板",
                "parameters": [
                    {"type": "string", "description": "模板键", "name": "key", "in": "path", "required": true},
                    {"description": "模板内容", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.UpdateTemplateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.TemplateItem"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/scheduler/jobs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["调度"],
                "summary": "定时任务状态",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/scheduler/jobs/{id}": {
            "delete": {
                "produces": ["application/json"],
                "tags": ["调度"],
                "summary": "删除定时任务",
                "parameters": [
                    {"type": "string", "description": "任务 UUID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/scheduler/jobs/{id}/run": {
            "post": {
                "produces": ["application/json"],
                "tags": ["调度"],
                "summary": "立即执行定时任务",
                "parameters": [
                    {"type": "string", "description": "任务 UUID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["健康检查"],
                "summary": "存活检查",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/health/kv": {
            "get": {
                "produces": ["application/json"],
                "tags": ["健康检查"],
                "summary": "KV 检查",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/health/mq": {
            "get": {
                "produces": ["application/json"],
                "tags": ["健康检查"],
                "summary": "消息队列检查",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/health/s3": {
            "get": {
                "produces": ["application/json"],
                "tags": ["健康检查"],
                "summary": "对象镜像检查",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "model.FileRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "file_handle": {"type": "string"},
                "display_name": {"type": "string"},
                "size_bytes": {"type": "integer"},
                "kind": {"type": "string", "enum": ["document", "photo", "video", "audio", "voice"]},
                "uploader_id": {"type": "integer"},
                "uploader_handle": {"type": "string"},
                "created_at": {"type": "string"},
                "storage_ref": {"type": "string"},
                "download_count": {"type": "integer"}
            }
        },
        "types.FileItem": {
            "allOf": [
                {"$ref": "#/definitions/model.FileRecord"},
                {"type": "object", "properties": {"share_link": {"type": "string"}}}
            ]
        },
        "types.ListFilesResponse": {
            "type": "object",
            "properties": {
                "files": {"type": "array", "items": {"$ref": "#/definitions/types.FileItem"}},
                "total": {"type": "integer"}
            }
        },
        "types.ImportResponse": {
            "type": "object",
            "properties": {
                "imported": {"type": "integer"},
                "skipped": {"type": "integer"},
                "invalid": {"type": "integer"}
            }
        },
        "types.StatsKindItem": {
            "type": "object",
            "properties": {
                "kind": {"type": "string"},
                "count": {"type": "integer"},
                "size": {"type": "integer"},
                "downloads": {"type": "integer"}
            }
        },
        "types.GlobalStats": {
            "type": "object",
            "properties": {
                "total_files": {"type": "integer"},
                "total_downloads": {"type": "integer"},
                "distinct_uploaders": {"type": "integer"},
                "total_size": {"type": "integer"},
                "avg_downloads": {"type": "number"},
                "files_channel_id": {"type": "integer"},
                "logs_channel_id": {"type": "integer"},
                "by_kind": {"type": "array", "items": {"$ref": "#/definitions/types.StatsKindItem"}}
            }
        },
        "types.UserStats": {
            "type": "object",
            "properties": {
                "uploader_id": {"type": "integer"},
                "files_uploaded": {"type": "integer"},
                "total_downloads": {"type": "integer"},
                "total_size": {"type": "integer"},
                "avg_downloads": {"type": "number"}
            }
        },
        "types.TemplateItem": {
            "type": "object",
            "properties": {
                "key": {"type": "string"},
                "title": {"type": "string"},
                "text": {"type": "string"}
            }
        },
        "types.UpdateTemplateRequest": {
            "type": "object",
            "required": ["text"],
            "properties": {
                "text": {"type": "string", "maxLength": 4096}
            }
        }
    },
    "securityDefinitions": {
        "AdminToken": {
            "type": "apiKey",
            "name": "X-Admin-Token",
            "in": "header"
        }
    }
}`

// SwaggerInfo 文档元信息，Host 在注册路由时按配置填写.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "filerelay admin API",
	Description:      "filerelay 的管理接口：文件索引查询、日志镜像导入、统计、消息模板与定时任务.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
