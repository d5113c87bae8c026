package router

import (
	"fmt"
	"net/http"
)

func registerSwaggerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/", http.StatusMovedPermanently)
	})

	mux.HandleFunc("/swagger/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, swaggerHTML, "/swagger/openapi.json")
	})

	mux.HandleFunc("/swagger/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(openAPI))
	})
}

const swaggerHTML = `<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Back-office Ledger API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.onload = function() {
      window.ui = SwaggerUIBundle({
        url: "%s",
        dom_id: "#swagger-ui"
      });
    };
  </script>
</body>
</html>`

const openAPI = `{
  "openapi": "3.0.3",
  "info": {"title": "Back-office Ledger API", "version": "1.0.0"},
  "components": {"securitySchemes": {"BasicAuth": {"type": "http", "scheme": "basic"}}},
  "paths": {
    "/holders": {"post": {"summary": "Create holder (admin)", "security": [{"BasicAuth": []}], "parameters": [{"name": "X-Owner-ID", "in": "header", "schema": {"type": "string"}}, {"name": "X-Role", "in": "header", "schema": {"type": "string", "enum": ["user", "admin", "superadmin"]}}], "requestBody": {"required": true, "content": {"application/json": {"schema": {"type": "object", "properties": {"email": {"type": "string"}, "fullName": {"type": "string"}, "phoneNumber": {"type": "string"}, "routingNumber": {"type": "string"}}}}}}, "responses": {"200": {"description": "OK"}, "400": {"description": "Validation or business rule error"}, "401": {"description": "Unauthorized"}, "404": {"description": "Not found"}}}},
    "/holders/{id}": {"get": {"summary": "Get holder", "security": [{"BasicAuth": []}], "parameters": [{"name": "X-Owner-ID", "in": "header", "schema": {"type": "string"}}, {"name": "X-Role", "in": "header", "schema": {"type": "string", "enum": ["user", "admin", "superadmin"]}}, {"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}], "responses": {"200": {"description": "OK"}, "400": {"description": "Validation or business rule error"}, "401": {"description": "Unauthorized"}, "404": {"description": "Not found"}}}},
    "/balances": {"get": {"summary": "Balance rollup", "security": [{"BasicAuth": []}], "parameters": [{"name": "X-Owner-ID", "in": "header", "schema": {"type": "string"}}, {"name": "X-Role", "in": "header", "schema": {"type": "string", "enum": ["user", "admin", "superadmin"]}}], "responses": {"200": {"description": "OK"}, "400": {"description": "Validation or business rule error"}, "401": {"description": "Unauthorized"}, "404": {"description": "Not found"}}}},
    "/transfers": {"post": {"summary": "Create transfer", "security": [{"BasicAuth": []}], "parameters": [{"name": "X-Owner-ID", "in": "header", "schema": {"type": "string"}}, {"name": "X-Role", "in": "header", "schema": {"type": "string", "enum": ["user", "admin", "superadmin"]}}], "requestBody": {"required": true, "content": {"application/json": {"schema": {"type": "object", "properties": {"type": {"type": "string"}, "fromAccount": {"type": "string"}, "toAccount": {"type": "string"}, "amount": {"type": "string"}, "currency": {"type": "string"}, "description": {"type": "string"}, "holdForApproval": {"type": "boolean"}, "recipientEmail": {"type": "string"}, "recipientAccountNumber": {"type": "string"}, "recipientRoutingNumber": {"type": "string"}, "externalAccountDetails": {"type": "object"}, "urgent": {"type": "boolean"}, "otpProof": {"type": "string"}}}}}}, "responses": {"201": {"description": "Created"}, "202": {"description": "OTP verification required"}, "400": {"description": "Validation or business rule error"}, "404": {"description": "Recipient not found"}}}},
    "/transfers/fees": {"post": {"summary": "Quote transfer fees", "security": [{"BasicAuth": []}], "parameters": [{"name": "X-Owner-ID", "in": "header", "schema": {"type": "string"}}, {"name": "X-Role", "in": "header", "schema": {"type": "string", "enum": ["user", "admin", "superadmin"]}}], "requestBody": {"required": true, "content": {"application/json": {"schema": {"type": "object", "properties": {"type": {"type": "string"}, "amount": {"type": "string"}, "urgent": {"type": "boolean"}, "destinationCurrency": {"type": "string"}}}}}}, "responses": {"200": {"description": "OK"}, "400": {"description": "Validation or business rule error"}, "401": {"description": "Unauthorized"}, "404": {"description": "Not found"}}}},
    "/transactions": {"post": {"summary": "Submit pending transaction (admin)", "security": [{"BasicAuth": []}], "parameters": [{"name": "X-Owner-ID", "in": "header", "schema": {"type": "string"}}, {"name": "X-Role", "in": "header", "schema": {"type": "string", "enum": ["user", "admin", "superadmin"]}}], "requestBody": {"required": true, "content": {"application/json": {"schema": {"type": "object", "properties": {"ownerId": {"type": "string"}, "type": {"type": "string"}, "accountType": {"type": "string"}, "currency": {"type": "string"}, "amount": {"type": "string"}, "description": {"type": "string"}, "date": {"type": "string"}}}}}}, "responses": {"200": {"description": "OK"}, "400": {"description": "Validation or business rule error"}, "401": {"description": "Unauthorized"}, "404": {"description": "Not found"}}}},
    "/transactions/pending": {"get": {"summary": "Pending queue (admin)", "security": [{"BasicAuth": []}], "parameters": [{"name": "X-Owner-ID", "in": "header", "schema": {"type": "string"}}, {"name": "X-Role", "in": "header", "schema": {"type": "string", "enum": ["user", "admin", "superadmin"]}}, {"name": "ownerId", "in": "query", "schema": {"type": "string"}}, {"name": "correlationId", "in": "query", "schema": {"type": "string"}}, {"name": "limit", "in": "query", "schema": {"type": "integer"}}], "responses": {"200": {"description": "OK"}, "400": {"description": "Validation or business rule error"}, "401": {"description": "Unauthorized"}, "404": {"description": "Not found"}}}},
    "/transactions/{id}/approve": {"post": {"summary": "Approve transaction (admin)", "security": [{"BasicAuth": []}], "parameters": [{"name": "X-Owner-ID", "in": "header", "schema": {"type": "string"}}, {"name": "X-Role", "in": "header", "schema": {"type": "string", "enum": ["user", "admin", "superadmin"]}}, {"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}], "requestBody": {"required": true, "content": {"application/json": {"schema": {"type": "object", "properties": {"effectiveDate": {"type": "string"}}}}}}, "responses": {"200": {"description": "OK"}, "400": {"description": "Validation or business rule error"}, "401": {"description": "Unauthorized"}, "404": {"description": "Not found"}}}},
    "/transactions/{id}/reject": {"post": {"summary": "Reject transaction (admin)", "security": [{"BasicAuth": []}], "parameters": [{"name": "X-Owner-ID", "in": "header", "schema": {"type": "string"}}, {"name": "X-Role", "in": "header", "schema": {"type": "string", "enum": ["user", "admin", "superadmin"]}}, {"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}], "requestBody": {"required": true, "content": {"application/json": {"schema": {"type": "object", "properties": {"reason": {"type": "string"}}}}}}, "responses": {"200": {"description": "OK"}, "400": {"description": "Validation or business rule error"}, "401": {"description": "Unauthorized"}, "404": {"description": "Not found"}}}},
    "/transactions/{id}/post": {"post": {"summary": "Post approved transaction (admin)", "security": [{"BasicAuth": []}], "parameters": [{"name": "X-Owner-ID", "in": "header", "schema": {"type": "string"}}, {"name": "X-Role", "in": "header", "schema": {"type": "string", "enum": ["user", "admin", "superadmin"]}}, {"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}], "responses": {"200": {"description": "OK"}, "400": {"description": "Validation or business rule error"}, "401": {"description": "Unauthorized"}, "404": {"description": "Not found"}}}},
    "/transactions/groups/{correlationId}/approve": {"post": {"summary": "Approve transaction group (admin)", "security": [{"BasicAuth": []}], "parameters": [{"name": "X-Owner-ID", "in": "header", "schema": {"type": "string"}}, {"name": "X-Role", "in": "header", "schema": {"type": "string", "enum": ["user", "admin", "superadmin"]}}, {"name": "correlationId", "in": "path", "required": true, "schema": {"type": "string"}}], "responses": {"200": {"description": "OK"}, "400": {"description": "Validation or business rule error"}, "401": {"description": "Unauthorized"}, "404": {"description": "Not found"}}}},
    "/otp/request": {"post": {"summary": "Request OTP", "security": [{"BasicAuth": []}], "parameters": [{"name": "X-Owner-ID", "in": "header", "schema": {"type": "string"}}, {"name": "X-Role", "in": "header", "schema": {"type": "string", "enum": ["user", "admin", "superadmin"]}}], "requestBody": {"required": true, "content": {"application/json": {"schema": {"type": "object", "properties": {"purpose": {"type": "string"}, "metadata": {"type": "object"}}}}}}, "responses": {"200": {"description": "OK"}, "400": {"description": "Validation or business rule error"}, "401": {"description": "Unauthorized"}, "404": {"description": "Not found"}}}},
    "/otp/verify": {"post": {"summary": "Verify OTP", "security": [{"BasicAuth": []}], "parameters": [{"name": "X-Owner-ID", "in": "header", "schema": {"type": "string"}}, {"name": "X-Role", "in": "header", "schema": {"type": "string", "enum": ["user", "admin", "superadmin"]}}], "requestBody": {"required": true, "content": {"application/json": {"schema": {"type": "object", "properties": {"purpose": {"type": "string"}, "code": {"type": "string"}}}}}}, "responses": {"200": {"description": "OK"}, "400": {"description": "Validation or business rule error"}, "401": {"description": "Unauthorized"}, "404": {"description": "Not found"}}}},
    "/limits": {"get": {"summary": "Get limits", "security": [{"BasicAuth": []}], "parameters": [{"name": "X-Owner-ID", "in": "header", "schema": {"type": "string"}}, {"name": "X-Role", "in": "header", "schema": {"type": "string", "enum": ["user", "admin", "superadmin"]}}], "responses": {"200": {"description": "OK"}, "400": {"description": "Validation or business rule error"}, "401": {"description": "Unauthorized"}, "404": {"description": "Not found"}}}, "put": {"summary": "Update limits (admin)", "security": [{"BasicAuth": []}], "parameters": [{"name": "X-Owner-ID", "in": "header", "schema": {"type": "string"}}, {"name": "X-Role", "in": "header", "schema": {"type": "string", "enum": ["user", "admin", "superadmin"]}}], "requestBody": {"required": true, "content": {"application/json": {"schema": {"type": "object", "properties": {"ownerId": {"type": "string"}, "limitsEnabled": {"type": "boolean"}, "maxTransactionAmount": {"type": "string"}, "dailyTransferLimit": {"type": "string"}, "dailyWithdrawalLimit": {"type": "string"}, "accountDailyLimits": {"type": "object"}}}}}}, "responses": {"200": {"description": "OK"}, "400": {"description": "Validation or business rule error"}, "401": {"description": "Unauthorized"}, "404": {"description": "Not found"}}}},
    "/limits/check": {"post": {"summary": "Check limit", "security": [{"BasicAuth": []}], "parameters": [{"name": "X-Owner-ID", "in": "header", "schema": {"type": "string"}}, {"name": "X-Role", "in": "header", "schema": {"type": "string", "enum": ["user", "admin", "superadmin"]}}], "requestBody": {"required": true, "content": {"application/json": {"schema": {"type": "object", "properties": {"amount": {"type": "string"}, "kind": {"type": "string"}, "accountType": {"type": "string"}}}}}}, "responses": {"200": {"description": "OK"}, "400": {"description": "Validation or business rule error"}, "401": {"description": "Unauthorized"}, "404": {"description": "Not found"}}}},
    "/limits/usage": {"post": {"summary": "Record usage", "security": [{"BasicAuth": []}], "parameters": [{"name": "X-Owner-ID", "in": "header", "schema": {"type": "string"}}, {"name": "X-Role", "in": "header", "schema": {"type": "string", "enum": ["user", "admin", "superadmin"]}}], "requestBody": {"required": true, "content": {"application/json": {"schema": {"type": "object", "properties": {"amount": {"type": "string"}, "kind": {"type": "string"}, "accountType": {"type": "string"}}}}}}, "responses": {"200": {"description": "OK"}, "400": {"description": "Validation or business rule error"}, "401": {"description": "Unauthorized"}, "404": {"description": "Not found"}}}},
    "/scheduled-transfers": {"post": {"summary": "Create schedule", "security": [{"BasicAuth": []}], "parameters": [{"name": "X-Owner-ID", "in": "header", "schema": {"type": "string"}}, {"name": "X-Role", "in": "header", "schema": {"type": "string", "enum": ["user", "admin", "superadmin"]}}], "requestBody": {"required": true, "content": {"application/json": {"schema": {"type": "object", "properties": {"fromAccount": {"type": "string"}, "toAccount": {"type": "string"}, "toAccountType": {"type": "string"}, "amount": {"type": "string"}, "currency": {"type": "string"}, "description": {"type": "string"}, "frequency": {"type": "string"}, "startDate": {"type": "string"}, "endDate": {"type": "string"}, "externalAccountDetails": {"type": "object"}}}}}}, "responses": {"200": {"description": "OK"}, "400": {"description": "Validation or business rule error"}, "401": {"description": "Unauthorized"}, "404": {"description": "Not found"}}}, "get": {"summary": "List schedules", "security": [{"BasicAuth": []}], "parameters": [{"name": "X-Owner-ID", "in": "header", "schema": {"type": "string"}}, {"name": "X-Role", "in": "header", "schema": {"type": "string", "enum": ["user", "admin", "superadmin"]}}, {"name": "ownerId", "in": "query", "schema": {"type": "string"}}, {"name": "status", "in": "query", "schema": {"type": "string"}}], "responses": {"200": {"description": "OK"}, "400": {"description": "Validation or business rule error"}, "401": {"description": "Unauthorized"}, "404": {"description": "Not found"}}}},
    "/scheduled-transfers/{id}/pause": {"post": {"summary": "Pause schedule", "security": [{"BasicAuth": []}], "parameters": [{"name": "X-Owner-ID", "in": "header", "schema": {"type": "string"}}, {"name": "X-Role", "in": "header", "schema": {"type": "string", "enum": ["user", "admin", "superadmin"]}}, {"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}], "responses": {"200": {"description": "OK"}, "400": {"description": "Validation or business rule error"}, "401": {"description": "Unauthorized"}, "404": {"description": "Not found"}}}},
    "/scheduled-transfers/{id}/resume": {"post": {"summary": "Resume schedule", "security": [{"BasicAuth": []}], "parameters": [{"name": "X-Owner-ID", "in": "header", "schema": {"type": "string"}}, {"name": "X-Role", "in": "header", "schema": {"type": "string", "enum": ["user", "admin", "superadmin"]}}, {"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}], "responses": {"200": {"description": "OK"}, "400": {"description": "Validation or business rule error"}, "401": {"description": "Unauthorized"}, "404": {"description": "Not found"}}}},
    "/scheduled-transfers/{id}/cancel": {"post": {"summary": "Cancel schedule", "security": [{"BasicAuth": []}], "parameters": [{"name": "X-Owner-ID", "in": "header", "schema": {"type": "string"}}, {"name": "X-Role", "in": "header", "schema": {"type": "string", "enum": ["user", "admin", "superadmin"]}}, {"name": "id", "in": "path", "required": true, "schema": {"type": "string"}}], "responses": {"200": {"description": "OK"}, "400": {"description": "Validation or business rule error"}, "401": {"description": "Unauthorized"}, "404": {"description": "Not found"}}}},
    "/scheduled-transfers/sweep": {"post": {"summary": "Run scheduled sweep (admin)", "security": [{"BasicAuth": []}], "parameters": [{"name": "X-Owner-ID", "in": "header", "schema": {"type": "string"}}, {"name": "X-Role", "in": "header", "schema": {"type": "string", "enum": ["user", "admin", "superadmin"]}}], "requestBody": {"required": true, "content": {"application/json": {"schema": {"type": "object", "properties": {"now": {"type": "string"}}}}}}, "responses": {"200": {"description": "OK"}, "400": {"description": "Validation or business rule error"}, "401": {"description": "Unauthorized"}, "404": {"description": "Not found"}}}},
    "/rates": {"get": {"summary": "FX quotes", "security": [{"BasicAuth": []}], "parameters": [{"name": "X-Owner-ID", "in": "header", "schema": {"type": "string"}}, {"name": "X-Role", "in": "header", "schema": {"type": "string", "enum": ["user", "admin", "superadmin"]}}, {"name": "from", "in": "query", "schema": {"type": "string"}}, {"name": "to", "in": "query", "schema": {"type": "string"}}, {"name": "amount", "in": "query", "schema": {"type": "string"}}], "responses": {"200": {"description": "OK"}, "400": {"description": "Validation or business rule error"}, "401": {"description": "Unauthorized"}, "404": {"description": "Not found"}}}}
  }
}`
