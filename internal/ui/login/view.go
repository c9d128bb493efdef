// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// view.go - Rendering for the login form.
package login

import (
	"github.com/charmbracelet/lipgloss"
)

// formInnerWidth keeps the title and tabs aligned with the inputs.
const formInnerWidth = 34

// View renders the form centered in the window. Before the first
// resize arrives the box renders unpositioned.
func (m Model) View() string {
	form := m.renderForm()
	if m.width == 0 || m.height == 0 {
		return form
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, form)
}

// renderForm lays out the box: title, tabs, two labelled inputs, the
// submit button, and one line for either an error or the key hints.
func (m Model) renderForm() string {
	t := m.theme

	rows := []string{
		t.FormTitle.Width(formInnerWidth).Render("Nila"),
		"",
		m.renderTabs(),
		"",
		t.FormLabel.Render("Username"),
		m.username.View(),
		"",
		t.FormLabel.Render("Password"),
		m.password.View(),
		"",
		m.renderButton(),
		"",
		m.renderNotice(),
	}

	return t.FormBox.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m Model) renderTabs() string {
	t := m.theme

	loginTab := t.FormTabIdle.Render("Log in")
	registerTab := t.FormTabIdle.Render("Register")
	if m.tab == TabLogin {
		loginTab = t.FormTabActive.Render("Log in")
	} else {
		registerTab = t.FormTabActive.Render("Register")
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, loginTab, " ", registerTab)
}

func (m Model) renderButton() string {
	if m.busy {
		return m.theme.FormButtonBusy.Render("One moment...")
	}
	if m.tab == TabRegister {
		return m.theme.FormButton.Render("Create account")
	}
	return m.theme.FormButton.Render("Log in")
}

// renderNotice shows the error line, or the key hints when there is
// nothing to complain about.
func (m Model) renderNotice() string {
	if m.errText != "" {
		return m.theme.FormError.Render(m.errText)
	}

	other := "register"
	if m.tab == TabRegister {
		other = "log in"
	}
	return m.theme.FormHint.Render("tab fields · ^t " + other + " · enter submit · ^c quit")
}
