package sqlinline

const QListStyles = `--sql aad6e8fc-de7e-4664-9916-31c501cb7237
select id, title, prompt, coalesce(image_url, ''), created_at
from styles
order by created_at desc;
`

const QInsertStyle = `--sql 4de72c99-8e91-4577-9bfc-5266c4466e86
insert into styles (title, prompt, image_url, model_config)
values ($1::text, $2::text, $3::text, '{}'::jsonb)
returning id, created_at;
`

const QUpdateStyle = `--sql eb83a304-2852-4c8d-9878-397ca5acb74e
update styles
set title = $2::text, prompt = $3::text, image_url = $4::text
where id = $1::uuid;
`

const QSelectStyleImage = `--sql 9c3b039c-ffb3-4883-9a96-e186f67c57d9
select coalesce(image_url, '') from styles where id = $1::uuid limit 1;
`

const QDeleteStyle = `--sql f4544592-3836-4de1-9466-e859dfed287f
delete from styles where id = $1::uuid;
`
