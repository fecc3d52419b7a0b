package response

var (
	ErrInvalidRequestFormat = ErrorResponse{
		Status:  "error",
		Error:   "invalid_request",
		Details: "Invalid request format",
	}

	ErrAuthenticationFailed = ErrorResponse{
		Status: "error",
		Error:  "authentication_failed",
	}

	ErrImageNotFound = ErrorResponse{
		Status:  "error",
		Error:   "image_not_found",
		Details: "Image not found",
	}

	ErrDuplicateImage = ErrorResponse{
		Status:  "error",
		Error:   "duplicate_source_id",
		Details: "An image with this source id already exists",
	}

	ErrUpstreamAsset = ErrorResponse{
		Status:  "error",
		Error:   "upstream_asset_error",
		Details: "Image host request failed",
	}
)
