package domain

var Tables = []interface{}{
	// Accounts
	&Plan{},
	&User{},
	// Messaging
	&Session{},
	&Campaign{},
	&MessageLog{},
	// Billing & media
	&Payment{},
	&MediaUpload{},
}
