package mail

const tplDailyMinimal = `<!DOCTYPE html>
<html>
<body style="margin:0;padding:24px;font-family:Georgia,serif;background:#faf8f5;color:#2b2b2b;">
  <div style="max-width:540px;margin:0 auto;">
    <p style="font-size:18px;line-height:1.6;">{{.PromptText}}</p>
    <p style="margin-top:24px;">
      <a href="{{.RespondURL}}" style="color:#7a5c3e;">Write your response</a>
      &nbsp;·&nbsp;
      <a href="{{.SkipURL}}" style="color:#999;">Skip today</a>
    </p>
    {{if .PixelURL}}<img src="{{.PixelURL}}" width="1" height="1" alt="">{{end}}
  </div>
</body>
</html>`

const tplDailyDetailed = `<!DOCTYPE html>
<html>
<body style="margin:0;padding:24px;font-family:Georgia,serif;background:#faf8f5;color:#2b2b2b;">
  <div style="max-width:540px;margin:0 auto;background:#fff;border:1px solid #e8e2d9;border-radius:8px;padding:32px;">
    <p style="color:#7a5c3e;font-size:13px;letter-spacing:1px;text-transform:uppercase;margin:0 0 4px;">StorySeed</p>
    <h2 style="margin:0 0 16px;font-weight:normal;">Hello {{.UserName}},</h2>
    {{if .BookTitle}}<p style="color:#888;margin:0 0 4px;">Book: <strong>{{.BookTitle}}</strong></p>{{end}}
    {{if .ElementName}}<p style="color:#888;margin:0 0 16px;">About your {{.ElementType}} <strong>{{.ElementName}}</strong></p>{{end}}
    <blockquote style="border-left:3px solid #7a5c3e;margin:0;padding:8px 16px;font-size:17px;line-height:1.7;">
      {{.PromptText}}
    </blockquote>
    {{if .PrevAnswer}}
    <div style="margin-top:24px;padding:16px;background:#faf8f5;border-radius:6px;">
      <p style="margin:0 0 8px;color:#7a5c3e;font-size:13px;">Last time you wrote:</p>
      <div style="color:#555;font-size:14px;line-height:1.6;">{{.PrevAnswer}}</div>
    </div>
    {{end}}
    {{if gt .Streak 0}}<p style="margin-top:24px;color:#7a5c3e;">You're on a {{.Streak}}-day streak. Keep it going!</p>{{end}}
    <p style="margin-top:24px;">
      <a href="{{.RespondURL}}" style="display:inline-block;background:#7a5c3e;color:#fff;padding:10px 24px;border-radius:6px;text-decoration:none;">Write your response</a>
    </p>
    <p style="margin-top:8px;"><a href="{{.SkipURL}}" style="color:#999;font-size:13px;">Skip today's prompt</a></p>
    <p style="margin-top:32px;color:#bbb;font-size:12px;">© {{year}} StorySeed · <a href="{{.WebURL}}/settings" style="color:#bbb;">Email preferences</a></p>
    {{if .PixelURL}}<img src="{{.PixelURL}}" width="1" height="1" alt="">{{end}}
  </div>
</body>
</html>`

const tplDailyInspirational = `<!DOCTYPE html>
<html>
<body style="margin:0;padding:24px;font-family:Georgia,serif;background:#2b2b2b;color:#f5f0e8;">
  <div style="max-width:540px;margin:0 auto;text-align:center;padding:48px 24px;">
    <p style="color:#c9a876;font-size:13px;letter-spacing:2px;text-transform:uppercase;margin:0 0 32px;">Every story starts with a single word</p>
    <p style="font-size:22px;line-height:1.8;font-style:italic;">{{.PromptText}}</p>
    {{if .ElementName}}<p style="color:#888;margin-top:24px;">— for {{.ElementName}}{{if .BookTitle}}, <em>{{.BookTitle}}</em>{{end}}</p>{{end}}
    {{if gt .Streak 0}}<p style="color:#c9a876;margin-top:32px;">Day {{.Streak}} of your journey.</p>{{end}}
    <p style="margin-top:40px;">
      <a href="{{.RespondURL}}" style="display:inline-block;border:1px solid #c9a876;color:#c9a876;padding:12px 32px;border-radius:24px;text-decoration:none;">Begin writing</a>
    </p>
    <p style="margin-top:16px;"><a href="{{.SkipURL}}" style="color:#666;font-size:13px;">Not today</a></p>
    {{if .PixelURL}}<img src="{{.PixelURL}}" width="1" height="1" alt="">{{end}}
  </div>
</body>
</html>`

const tplStreakWarning = `<!DOCTYPE html>
<html>
<body style="margin:0;padding:24px;font-family:Georgia,serif;background:#faf8f5;color:#2b2b2b;">
  <div style="max-width:540px;margin:0 auto;background:#fff;border:1px solid #e8e2d9;border-radius:8px;padding:32px;">
    <h2 style="margin:0 0 16px;font-weight:normal;">{{.UserName}}, your streak needs you</h2>
    <p style="line-height:1.7;">You've written {{.Streak}} days in a row. There are about {{.HoursLeft}} hours left today — a few sentences is all it takes to keep the chain alive.</p>
    <p style="margin-top:24px;">
      <a href="{{.RespondURL}}" style="display:inline-block;background:#7a5c3e;color:#fff;padding:10px 24px;border-radius:6px;text-decoration:none;">Write something now</a>
    </p>
    <p style="margin-top:32px;color:#bbb;font-size:12px;">© {{year}} StorySeed · <a href="{{.WebURL}}/settings" style="color:#bbb;">Email preferences</a></p>
  </div>
</body>
</html>`

const tplWelcome = `<!DOCTYPE html>
<html>
<body style="margin:0;padding:24px;font-family:Georgia,serif;background:#faf8f5;color:#2b2b2b;">
  <div style="max-width:540px;margin:0 auto;background:#fff;border:1px solid #e8e2d9;border-radius:8px;padding:32px;">
    <p style="color:#7a5c3e;font-size:13px;letter-spacing:1px;text-transform:uppercase;margin:0 0 4px;">StorySeed</p>
    <h2 style="margin:0 0 16px;font-weight:normal;">Welcome, {{.UserName}}</h2>
    <p style="line-height:1.7;">Create a book, add the characters and places living in your head, and we'll send you one thoughtful question about them every day. Small answers add up to a world.</p>
    <p style="margin-top:24px;">
      <a href="{{.WebURL}}/books/new" style="display:inline-block;background:#7a5c3e;color:#fff;padding:10px 24px;border-radius:6px;text-decoration:none;">Start your first book</a>
    </p>
    <p style="margin-top:32px;color:#bbb;font-size:12px;">© {{year}} StorySeed</p>
  </div>
</body>
</html>`
