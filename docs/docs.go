// Package docs регистрирует OpenAPI-описание для /swagger/*.
// Пересобирается командой: swag init -g cmd/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {"get": {"tags": ["system"], "summary": "Проверка живости", "responses": {"200": {"description": "OK"}}}},
        "/scoreboard": {"get": {"tags": ["scoreboard"], "summary": "Снимок табло", "produces": ["application/json"], "responses": {"200": {"description": "Матчи"}}}},
        "/scoreboard/viewers": {"get": {"tags": ["scoreboard"], "summary": "Число зрителей", "parameters": [{"type": "string", "name": "channel", "in": "query"}], "responses": {"200": {"description": "Зрители"}}}},
        "/ws/scoreboard": {"get": {"tags": ["scoreboard"], "summary": "Websocket табло (snapshot, match_change, viewers)", "parameters": [{"type": "string", "name": "channel", "in": "query"}], "responses": {"101": {"description": "Switching Protocols"}}}},
        "/matches": {
            "get": {"tags": ["matches"], "summary": "Список матчей", "parameters": [{"type": "string", "name": "status", "in": "query"}, {"type": "string", "name": "category", "in": "query"}], "responses": {"200": {"description": "Список матчей"}, "400": {"description": "Неверный фильтр"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["matches"], "summary": "Создать матч", "responses": {"201": {"description": "Матч создан"}, "422": {"description": "Ошибка валидации"}}}
        },
        "/matches/{matchID}": {
            "get": {"tags": ["matches"], "summary": "Получить матч", "parameters": [{"type": "string", "name": "matchID", "in": "path", "required": true}], "responses": {"200": {"description": "Матч"}, "404": {"description": "Матч не найден"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["matches"], "summary": "Удалить матч", "parameters": [{"type": "string", "name": "matchID", "in": "path", "required": true}], "responses": {"204": {"description": "Матч удалён"}}}
        },
        "/matches/{matchID}/start": {"post": {"security": [{"BearerAuth": []}], "tags": ["scoring"], "summary": "Начать матч", "parameters": [{"type": "string", "name": "matchID", "in": "path", "required": true}, {"type": "string", "name": "X-Command-ID", "in": "header"}], "responses": {"200": {"description": "Матч после изменения"}, "409": {"description": "Матч изменился параллельно"}, "422": {"description": "Недопустимый переход"}}}},
        "/matches/{matchID}/score": {"post": {"security": [{"BearerAuth": []}], "tags": ["scoring"], "summary": "Очко стороне", "parameters": [{"type": "string", "name": "matchID", "in": "path", "required": true}, {"type": "string", "name": "X-Command-ID", "in": "header"}], "responses": {"200": {"description": "Матч после изменения"}, "429": {"description": "Слишком много команд"}}}},
        "/matches/{matchID}/undo": {"post": {"security": [{"BearerAuth": []}], "tags": ["scoring"], "summary": "Отменить очко", "parameters": [{"type": "string", "name": "matchID", "in": "path", "required": true}, {"type": "string", "name": "X-Command-ID", "in": "header"}], "responses": {"200": {"description": "Матч после изменения"}}}},
        "/matches/{matchID}/end-set": {"post": {"security": [{"BearerAuth": []}], "tags": ["scoring"], "summary": "Завершить сет", "parameters": [{"type": "string", "name": "matchID", "in": "path", "required": true}, {"type": "string", "name": "X-Command-ID", "in": "header"}], "responses": {"200": {"description": "Матч после изменения"}}}},
        "/matches/{matchID}/complete": {"post": {"security": [{"BearerAuth": []}], "tags": ["scoring"], "summary": "Завершить матч", "parameters": [{"type": "string", "name": "matchID", "in": "path", "required": true}, {"type": "string", "name": "X-Command-ID", "in": "header"}], "responses": {"200": {"description": "Матч после изменения"}}}},
        "/matches/{matchID}/status": {"patch": {"security": [{"BearerAuth": []}], "tags": ["scoring"], "summary": "Сменить статус матча", "parameters": [{"type": "string", "name": "matchID", "in": "path", "required": true}, {"type": "string", "name": "X-Command-ID", "in": "header"}], "responses": {"200": {"description": "Матч после изменения"}}}},
        "/players": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["players"], "summary": "Список игроков", "parameters": [{"type": "string", "name": "status", "in": "query"}], "responses": {"200": {"description": "Список игроков"}}},
            "post": {"tags": ["players"], "summary": "Регистрация игрока", "responses": {"201": {"description": "Заявка создана"}, "409": {"description": "Табельный номер уже зарегистрирован"}, "422": {"description": "Ошибка валидации"}}}
        },
        "/players/import": {"post": {"security": [{"BearerAuth": []}], "tags": ["players"], "summary": "Массовый импорт игроков", "consumes": ["multipart/form-data"], "parameters": [{"type": "file", "name": "file", "in": "formData"}, {"type": "string", "name": "format", "in": "query"}, {"type": "boolean", "name": "auto_approve", "in": "query"}], "responses": {"200": {"description": "Итог импорта"}}}},
        "/players/{playerID}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["players"], "summary": "Получить игрока", "parameters": [{"type": "string", "name": "playerID", "in": "path", "required": true}], "responses": {"200": {"description": "Игрок"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["players"], "summary": "Редактировать игрока", "parameters": [{"type": "string", "name": "playerID", "in": "path", "required": true}], "responses": {"200": {"description": "Игрок обновлён"}, "409": {"description": "Игрок заблокирован"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["players"], "summary": "Удалить игрока", "parameters": [{"type": "string", "name": "playerID", "in": "path", "required": true}], "responses": {"204": {"description": "Игрок удалён"}}}
        },
        "/players/{playerID}/approve": {"post": {"security": [{"BearerAuth": []}], "tags": ["players"], "summary": "Одобрить заявку игрока", "parameters": [{"type": "string", "name": "playerID", "in": "path", "required": true}], "responses": {"200": {"description": "Игрок одобрен"}}}},
        "/players/{playerID}/reject": {"post": {"security": [{"BearerAuth": []}], "tags": ["players"], "summary": "Отклонить заявку игрока", "parameters": [{"type": "string", "name": "playerID", "in": "path", "required": true}], "responses": {"200": {"description": "Заявка отклонена"}}}},
        "/dashboard/stats": {"get": {"security": [{"BearerAuth": []}], "tags": ["dashboard"], "summary": "Сводка для админ-панели", "produces": ["application/json"], "responses": {"200": {"description": "Игроки и матчи по статусам"}, "503": {"description": "Хранилище недоступно"}}}},
        "/winners": {
            "get": {"tags": ["winners"], "summary": "Победители по категориям", "responses": {"200": {"description": "Победители и призёры"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["winners"], "summary": "Объявить победителя", "responses": {"201": {"description": "Победитель сохранён"}}}
        },
        "/winners/{winnerID}": {"delete": {"security": [{"BearerAuth": []}], "tags": ["winners"], "summary": "Удалить запись о победителе", "parameters": [{"type": "string", "name": "winnerID", "in": "path", "required": true}], "responses": {"204": {"description": "Удалено"}}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Tournament Scoreboard API",
	Description:      "Живое табло турнира: матчи, команды судьи, игроки и победители.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
