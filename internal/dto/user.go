package dto

// UpdateUserRequest is a partial account update; nil fields are left unchanged.
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	PRN      *string `json:"prn"`
	Class    *string `json:"class"`
	Division *string `json:"division"`
	Role     *string `json:"role"`
}

// ListUsersQuery carries the optional user listing filters.
type ListUsersQuery struct {
	Role   string `form:"role"`
	Search string `form:"search"`
}
