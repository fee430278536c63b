package api

import "github.com/pquerna/otp/totp"

func validateTOTP(secret, code string) bool {
	return totp.Validate(code, secret)
}
