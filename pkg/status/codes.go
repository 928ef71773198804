package status

// Status codes for API responses
// 1000-1999: Success codes
// 4000-4999: Client error codes
// 5000-5999: Server error codes

const (
	// Success codes (1000-1999)
	StatusOK             int16 = 1000
	StatusCreated        int16 = 1001
	StatusAccepted       int16 = 1002
	StatusUpdated        int16 = 1003
	StatusDeleted        int16 = 1004
	StatusTokenRefreshed int16 = 1010
	StatusLogoutSuccess  int16 = 1011
	StatusKeyIssued      int16 = 1020
	StatusKeyRevoked     int16 = 1021
	StatusKeyDeleted     int16 = 1022

	// Client error codes (4000-4999)
	StatusBadRequest         int16 = 4000
	StatusUnauthorized       int16 = 4001
	StatusForbidden          int16 = 4002
	StatusNotFound           int16 = 4003
	StatusConflict           int16 = 4004
	StatusTooManyRequests    int16 = 4005
	StatusValidationFailed   int16 = 4010
	StatusInvalidCredentials int16 = 4011
	StatusInvalidToken       int16 = 4012
	StatusTokenExpired       int16 = 4013
	StatusInvalidAPIKey      int16 = 4020
	StatusKeyLimitReached    int16 = 4021
	StatusRefreshRejected    int16 = 4030
	StatusCSRFTokenMismatch  int16 = 4040

	// Server error codes (5000-5999)
	StatusInternalServerError int16 = 5000
	StatusNotImplemented      int16 = 5001
	StatusServiceUnavailable  int16 = 5002
	StatusDBError             int16 = 5010
	StatusUpstreamError       int16 = 5020
)
