package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pquerna/otp/totp"

	errs "igclient/pkg/errors"
	"igclient/pkg/result"
)

// totpVerificationMethod selects an authenticator app code in two_factor_login
const totpVerificationMethod = "3"

// Login authenticates the session. Calling it again for the account that is
// already logged in succeeds without contacting the API; the password is not
// compared, so a different password for that username is ignored. Logging in
// as a different account drops the previous session first.
func (c *Client) Login(ctx context.Context, username, password string) result.Result[bool] {
	if username == "" {
		return result.Fail[bool](errs.InvalidArgument("username must not be empty"))
	}
	if password == "" {
		return result.Fail[bool](errs.InvalidArgument("password must not be empty"))
	}

	current, state, _ := c.session.snapshot()
	if state == StateAuthenticated && current == username {
		c.logger.DebugWithFields("session already authenticated", map[string]interface{}{
			"username": username,
		})
		return result.Success(true)
	}

	device, switched := c.session.begin(username)
	c.cookies.reset()
	if switched {
		c.logger.InfoWithFields("switching account, previous session dropped", map[string]interface{}{
			"previous": current,
			"username": username,
		})
	}

	c.logger.InfoWithFields("logging in", map[string]interface{}{
		"username":  username,
		"device_id": device.DeviceID,
	})

	user, err := c.authenticate(ctx, username, password, device)
	c.session.finish(user, err)
	if err != nil {
		c.logger.ErrorWithFields("login failed", map[string]interface{}{
			"username": username,
			"error":    err.Error(),
		})
		return result.Fail[bool](err)
	}

	c.logger.InfoWithFields("login succeeded", map[string]interface{}{
		"username": user.Username,
		"pk":       user.Pk,
	})
	return result.Success(true)
}

// Connect logs in with the credentials the client was constructed with
func (c *Client) Connect(ctx context.Context) result.Result[bool] {
	return c.Login(ctx, c.credentials.username, c.credentials.password)
}

// Logout ends the remote session. The local session is reset even when the
// API refuses the request.
func (c *Client) Logout(ctx context.Context) result.Result[bool] {
	if err := c.precheck("Logout"); err != nil {
		return result.Fail[bool](err)
	}

	username := c.Username()
	err := c.call(ctx, post(logoutEndpoint, url.Values{}), nil)

	c.session.reset()
	c.cookies.reset()

	if err != nil {
		c.logger.WarnWithFields("remote logout failed", map[string]interface{}{
			"username": username,
			"error":    err.Error(),
		})
		return result.Fail[bool](err)
	}

	c.logger.InfoWithFields("logged out", map[string]interface{}{
		"username": username,
	})
	return result.Success(true)
}

func (c *Client) authenticate(ctx context.Context, username, password string, device Device) (*User, error) {
	req := post(loginEndpoint, url.Values{
		"username":            {username},
		"password":            {password},
		"guid":                {device.GUID},
		"phone_id":            {device.PhoneID},
		"device_id":           {device.DeviceID},
		"login_attempt_count": {"0"},
	})

	status, body, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}

	// the challenge arrives as a failed response, so look for it first
	var resp loginResponse
	if json.Unmarshal(body, &resp) == nil && resp.TwoFactorRequired && resp.TwoFactorInfo != nil {
		return c.twoFactorLogin(ctx, username, resp.TwoFactorInfo.Identifier, device)
	}
	if err := c.decode(req, status, body, &resp); err != nil {
		return nil, err
	}

	return loggedInUser(resp)
}

// twoFactorLogin completes a login challenged for a second factor using a
// code generated from the configured TOTP secret
func (c *Client) twoFactorLogin(ctx context.Context, username, identifier string, device Device) (*User, error) {
	if c.totpSecret == "" {
		return nil, errs.RemoteRejected(http.StatusBadRequest, errs.ReasonTwoFactorRequired,
			"two-factor authentication is required but no TOTP secret is configured")
	}

	code, err := totp.GenerateCode(c.totpSecret, time.Now())
	if err != nil {
		return nil, errs.Unexpected(fmt.Errorf("failed to generate TOTP code: %w", err))
	}

	c.logger.DebugWithFields("answering two-factor challenge", map[string]interface{}{
		"username": username,
	})

	req := post(twoFactorLoginEndpoint, url.Values{
		"username":              {username},
		"verification_code":     {code},
		"two_factor_identifier": {identifier},
		"verification_method":   {totpVerificationMethod},
		"guid":                  {device.GUID},
		"device_id":             {device.DeviceID},
	})

	var resp loginResponse
	if err := c.call(ctx, req, &resp); err != nil {
		return nil, err
	}
	return loggedInUser(resp)
}

func loggedInUser(resp loginResponse) (*User, error) {
	if resp.LoggedInUser == nil {
		return nil, &errs.Error{
			Type:    errs.ErrorTypeUnexpected,
			Message: "login response did not include the logged in user",
			Code:    http.StatusOK,
			Reason:  errs.ReasonParsing,
		}
	}
	return resp.LoggedInUser, nil
}

// argument is a named identifier checked before dispatch
type argument struct {
	name  string
	value string
}

// precheck fails fast, without I/O, when the session is not authenticated
// or an identifier is empty
func (c *Client) precheck(operation string, args ...argument) error {
	if !c.IsAuthenticated() {
		c.logger.WarnWithFields("operation attempted without a session", map[string]interface{}{
			"operation": operation,
			"state":     c.State().String(),
		})
		return errs.Unauthenticated(operation)
	}
	for _, arg := range args {
		if arg.value == "" {
			return errs.InvalidArgument("%s: %s must not be empty", operation, arg.name)
		}
	}
	return nil
}
