package api

import "context"

// Login exchanges credentials for a token pair and profile. Unauthenticated.
func (c *Client) Login(ctx context.Context, email, password, deviceID string) (*AuthResponse, error) {
	ctx, cancel := c.authContext(ctx)
	defer cancel()

	var out AuthResponse
	err := c.Post(ctx, "/auth/login", loginRequest{
		Email:     email,
		Password:  password,
		DeviceID:  deviceID,
		UserAgent: c.userAgent,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account and returns the same shape as Login, so the
// caller can auto-login with the issued tokens.
func (c *Client) Register(ctx context.Context, name, email, password, deviceID string) (*AuthResponse, error) {
	ctx, cancel := c.authContext(ctx)
	defer cancel()

	var out AuthResponse
	err := c.Post(ctx, "/auth/register", registerRequest{
		Name:      name,
		Email:     email,
		Password:  password,
		DeviceID:  deviceID,
		UserAgent: c.userAgent,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh exchanges the refresh token for a new pair. The backend rotates
// the refresh token on every successful exchange. Unauthenticated.
func (c *Client) Refresh(ctx context.Context, refreshToken, deviceID string) (*TokenPair, error) {
	ctx, cancel := c.authContext(ctx)
	defer cancel()

	var out TokenPair
	err := c.Post(ctx, "/auth/refresh", refreshRequest{
		RefreshToken: refreshToken,
		DeviceID:     deviceID,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the session server-side, optionally across all devices.
func (c *Client) Logout(ctx context.Context, refreshToken string, allDevices bool) error {
	ctx, cancel := c.authContext(ctx)
	defer cancel()

	return c.Post(ctx, "/auth/logout", logoutRequest{
		RefreshToken: refreshToken,
		AllDevices:   allDevices,
	}, nil)
}

// Me fetches the authoritative profile for the current session.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out User
	if err := c.Get(ctx, "/auth/me", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
