// Package jwt issues and validates the RS256 bearer tokens that carry a
// caller's address.
//
// The subject claim holds the caller address; the optional role claim
// marks the certification registry owner:
//
//	svc, err := jwt.NewService(jwt.Config{
//	    PrivateKeyPath: "./keys/private.pem",
//	    Issuer:         "blockquest",
//	    ExpirationMins: 60,
//	})
//	token, err := svc.Sign("0x5B38Da6a701c568545dCfcB03FcB875f56beddC4", "")
//
//	claims, err := svc.Validate(token)
//	caller := claims.Address()
package jwt
