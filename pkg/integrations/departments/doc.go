// Package departments is the client for the departments backend.
//
// The backend serves the org hierarchy as nested records and accepts
// create, update and delete requests authenticated with a bearer token:
//
//	POST   /api/login                        {username, password} -> {token}
//	GET    /api/departments/hierarchy/all
//	GET    /api/departments/hierarchy?name=  404 when nothing matches
//	POST   /api/departments/create           {name, parent_id, flags}
//	PUT    /api/departments/{id}/update      {id, parent_id, name, flags}
//	DELETE /api/departments/{id}/delete
//
// [Actions] adapts a [Client] to [graph.Actions], so nodes produced by the
// flattener can call back into the backend and trigger a reload.
package departments
