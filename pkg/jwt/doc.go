// Package jwt provides JSON Web Token utilities for the Hangman API.
//
// Tokens are signed with HMAC-SHA256 using a shared secret. The subject
// claim carries the user ID the API trusts as the caller's principal.
//
// # Token Generation
//
//	service, err := jwt.NewService(jwt.Config{
//	    Secret:         os.Getenv("AUTH_SECRET"),
//	    Issuer:         "hangman",
//	    ExpirationMins: 60 * 24,
//	})
//
//	token, err := service.Sign(jwt.Claims{Subject: userID, Username: "ana"})
//
// # Token Validation
//
//	claims, err := service.Validate(tokenString)
//	if errors.Is(err, jwt.ErrTokenExpired) {
//	    // ask the player to log in again
//	}
//	userID := claims.Subject
package jwt
